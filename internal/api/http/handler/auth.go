package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dtroode/shopwise-auth/internal/api/http/middleware"
	"github.com/dtroode/shopwise-auth/internal/logger"
	"github.com/dtroode/shopwise-auth/internal/model"
)

// AuthService authenticates existing users.
type AuthService interface {
	Login(ctx context.Context, identity, plain string) (model.Session, error)
	AdminLogin(ctx context.Context, identity, plain string) (model.Session, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, id uuid.UUID) (model.User, error)
}

// Auth serves login, logout and the current user profile.
type Auth struct {
	service        AuthService
	contextManager model.ContextManager
	cookie         CookieConfig
	logger         *logger.Logger
}

func NewAuth(service AuthService, contextManager model.ContextManager, cookie CookieConfig, logger *logger.Logger) *Auth {
	return &Auth{
		service:        service,
		contextManager: contextManager,
		cookie:         cookie,
		logger:         logger,
	}
}

type loginRequest struct {
	identityFields
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *Auth) Login(c echo.Context) error {
	return h.login(c, h.service.Login)
}

// AdminLogin handles POST /admin/auth/login.
func (h *Auth) AdminLogin(c echo.Context) error {
	return h.login(c, h.service.AdminLogin)
}

func (h *Auth) login(c echo.Context, login func(ctx context.Context, identity, plain string) (model.Session, error)) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Password == "" {
		return model.NewInvalidInputError("password is required")
	}

	session, err := login(c.Request().Context(), req.identity(), req.Password)
	if err != nil {
		return err
	}

	setSessionCookie(c, h.cookie, session.Token)
	return respond(c, http.StatusOK, "login successful", newSessionResponse(session))
}

// Logout handles POST /auth/logout. The cookie is cleared even when the
// token is no longer valid.
func (h *Auth) Logout(c echo.Context) error {
	clearSessionCookie(c, h.cookie)

	if err := h.service.Logout(c.Request().Context(), middleware.TokenFromRequest(c)); err != nil {
		return err
	}

	return respond(c, http.StatusOK, "logged out", nil)
}

// Me handles GET /users/me.
func (h *Auth) Me(c echo.Context) error {
	claims, ok := h.contextManager.GetClaimsFromContext(c.Request().Context())
	if !ok {
		return model.ErrInvalidToken
	}

	user, err := h.service.Profile(c.Request().Context(), claims.SubjectID)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "", newUserResponse(user))
}
