package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dtroode/shopwise-auth/internal/logger"
	"github.com/dtroode/shopwise-auth/internal/model"
	"github.com/dtroode/shopwise-auth/internal/service"
)

// RegistrationService is the OTP registration flow.
type RegistrationService interface {
	RequestCode(ctx context.Context, identity string, profile model.Profile) (service.CodeAck, error)
	ResendCode(ctx context.Context, identity string) (service.CodeAck, error)
	VerifyCode(ctx context.Context, identity, code string) error
	Finalize(ctx context.Context, identity string, profile model.Profile, plain string) (model.Session, error)
}

// Registration serves the registration endpoints.
type Registration struct {
	service RegistrationService
	cookie  CookieConfig
	logger  *logger.Logger
}

func NewRegistration(service RegistrationService, cookie CookieConfig, logger *logger.Logger) *Registration {
	return &Registration{
		service: service,
		cookie:  cookie,
		logger:  logger,
	}
}

type profileFields struct {
	identityFields
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (f profileFields) profile() model.Profile {
	return model.Profile{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Phone:     f.Phone,
	}
}

type sendCodeRequest struct {
	profileFields
}

type verifyCodeRequest struct {
	identityFields
	Code flexibleCode `json:"code"`
	OTP  flexibleCode `json:"otp"`
}

type registerRequest struct {
	profileFields
	Password string `json:"password"`
}

type codeAckResponse struct {
	Identity         string `json:"identity"`
	Channel          string `json:"channel"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
}

func newCodeAckResponse(ack service.CodeAck) codeAckResponse {
	return codeAckResponse{
		Identity:         ack.Identity.Key,
		Channel:          string(ack.Identity.Kind),
		ExpiresInSeconds: int64(ack.ExpiresIn.Seconds()),
	}
}

// SendCode handles POST /auth/otp/send.
func (h *Registration) SendCode(c echo.Context) error {
	var req sendCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ack, err := h.service.RequestCode(c.Request().Context(), req.identity(), req.profile())
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "verification code sent", newCodeAckResponse(ack))
}

// ResendCode handles POST /auth/otp/resend.
func (h *Registration) ResendCode(c echo.Context) error {
	var req identityFields
	if err := bind(c, &req); err != nil {
		return err
	}

	ack, err := h.service.ResendCode(c.Request().Context(), req.identity())
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "verification code sent", newCodeAckResponse(ack))
}

// VerifyCode handles POST /auth/otp/verify. The code may be sent as "code"
// or "otp", as a string or a number.
func (h *Registration) VerifyCode(c echo.Context) error {
	var req verifyCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	code := string(req.Code)
	if code == "" {
		code = string(req.OTP)
	}
	if code == "" {
		return model.NewInvalidInputError("code is required")
	}

	if err := h.service.VerifyCode(c.Request().Context(), req.identity(), code); err != nil {
		return err
	}

	return respond(c, http.StatusOK, "verification code confirmed", nil)
}

// Register handles POST /auth/register. On success the session token is
// returned in the body and set as a cookie.
func (h *Registration) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	session, err := h.service.Finalize(c.Request().Context(), req.identity(), req.profile(), req.Password)
	if err != nil {
		return err
	}

	h.logger.Info("Registration handler: user registered", "user_id", session.User.ID.String())

	setSessionCookie(c, h.cookie, session.Token)
	return respond(c, http.StatusCreated, "registration completed", newSessionResponse(session))
}
