package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dtroode/shopwise-auth/internal/logger"
	"github.com/dtroode/shopwise-auth/internal/model"
	"github.com/dtroode/shopwise-auth/internal/service"
)

// AccountService manages accounts on behalf of their owners and admins.
type AccountService interface {
	Create(ctx context.Context, req service.CreateAccount) (model.User, error)
	SetStatus(ctx context.Context, id uuid.UUID, status model.Status) (model.User, error)
	UploadAvatar(ctx context.Context, id uuid.UUID, contentType string, size int64, r io.Reader) (model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update service.ProfileUpdate) (model.User, error)
}

// Account serves profile changes and the admin account endpoints.
type Account struct {
	service        AccountService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewAccount(service AccountService, contextManager model.ContextManager, logger *logger.Logger) *Account {
	return &Account{
		service:        service,
		contextManager: contextManager,
		logger:         logger,
	}
}

// UploadAvatar handles PUT /users/me/avatar with a multipart "avatar" file.
func (h *Account) UploadAvatar(c echo.Context) error {
	claims, ok := h.contextManager.GetClaimsFromContext(c.Request().Context())
	if !ok {
		return model.ErrInvalidToken
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		return model.NewInvalidInputError("avatar file is required")
	}
	if header.Size > service.MaxAvatarSize {
		return model.NewInvalidInputError("avatar is too large")
	}

	file, err := header.Open()
	if err != nil {
		return model.NewInvalidInputError("avatar file is unreadable")
	}
	defer file.Close()

	contentType := header.Header.Get(echo.HeaderContentType)
	user, err := h.service.UploadAvatar(c.Request().Context(), claims.SubjectID, contentType, header.Size, file)
	if err != nil {
		if errors.Is(err, service.ErrStorageDisabled) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "avatar uploads are disabled")
		}
		return err
	}

	return respond(c, http.StatusOK, "avatar updated", newUserResponse(user))
}

// updateProfileRequest lists the self-service fields. Email, password, role
// and verification flags are not bindable here.
type updateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Phone       *string `json:"phone"`
	Gender      *string `json:"gender"`
	DateOfBirth *string `json:"date_of_birth"`
}

// UpdateProfile handles PUT /users/me.
func (h *Account) UpdateProfile(c echo.Context) error {
	claims, ok := h.contextManager.GetClaimsFromContext(c.Request().Context())
	if !ok {
		return model.ErrInvalidToken
	}

	var req updateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	update := service.ProfileUpdate(req)
	if update == (service.ProfileUpdate{}) {
		return model.NewInvalidInputError("no profile fields to update")
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), claims.SubjectID, update)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "profile updated", newUserResponse(user))
}

type createSellerRequest struct {
	profileFields
	Password string `json:"password"`
}

// CreateSeller handles POST /admin/sellers.
func (h *Account) CreateSeller(c echo.Context) error {
	var req createSellerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.service.Create(c.Request().Context(), service.CreateAccount{
		Identity: req.identity(),
		Profile:  req.profile(),
		Password: req.Password,
		Role:     model.RoleVendor,
	})
	if err != nil {
		return err
	}

	if claims, ok := h.contextManager.GetClaimsFromContext(c.Request().Context()); ok {
		h.logger.Info("Account handler: seller created",
			"admin_id", claims.SubjectID.String(),
			"user_id", user.ID.String())
	}

	return respond(c, http.StatusCreated, "seller created", newUserResponse(user))
}

type setStatusRequest struct {
	Status model.Status `json:"status"`
}

// SetStatus handles PATCH /admin/users/:id/status.
func (h *Account) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return model.NewInvalidInputError("invalid user id")
	}

	var req setStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.service.SetStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "status updated", newUserResponse(user))
}
