package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/shopwise-auth/internal/logger"
	"github.com/dtroode/shopwise-auth/internal/model"
	"github.com/dtroode/shopwise-auth/internal/password"
)

// MaxAvatarSize is the largest accepted avatar upload in bytes.
const MaxAvatarSize = 5 << 20

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ErrStorageDisabled is returned by UploadAvatar when no object storage is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// CreateAccount describes an account created by an administrator.
type CreateAccount struct {
	Identity string
	Profile  model.Profile
	Password string
	Role     model.Role
}

// DateOfBirthLayout is the accepted date of birth format.
const DateOfBirthLayout = time.DateOnly

// ProfileUpdate carries the self-service profile changes of a user. Nil
// fields are left untouched; an empty Phone removes the phone number.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	Gender      *string
	DateOfBirth *string
}

// Account manages accounts outside the self-service registration flow.
type Account struct {
	users   model.UserStore
	hasher  model.PasswordHasher
	storage model.Storage
	logger  *logger.Logger
	now     func() time.Time
}

// NewAccount creates the account service. storage may be nil when avatar
// uploads are disabled.
func NewAccount(users model.UserStore, hasher model.PasswordHasher, storage model.Storage, logger *logger.Logger) *Account {
	return &Account{
		users:   users,
		hasher:  hasher,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Create stores a new active account with the requested role. The contact
// channels are left unverified.
func (a *Account) Create(ctx context.Context, req CreateAccount) (model.User, error) {
	if !req.Role.Valid() {
		return model.User{}, model.NewInvalidInputError(fmt.Sprintf("unknown role %q", req.Role))
	}
	return a.create(ctx, req, false)
}

// EnsureAdmin creates a super admin for identity unless a user already holds it.
func (a *Account) EnsureAdmin(ctx context.Context, identity, plain string, profile model.Profile) (bool, error) {
	id, err := model.ParseIdentity(identity)
	if err != nil {
		return false, err
	}

	existing, err := a.users.FindByIdentity(ctx, id)
	if err == nil {
		if !existing.Role.IsAdmin() {
			a.logger.Warn("Account service: seed identity belongs to a non admin user",
				"identity", id.Key,
				"role", existing.Role)
		}
		return false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return false, fmt.Errorf("failed to find user: %w", err)
	}

	_, err = a.create(ctx, CreateAccount{
		Identity: identity,
		Profile:  profile,
		Password: plain,
		Role:     model.RoleSuperAdmin,
	}, true)
	if err != nil {
		if errors.Is(err, model.ErrIdentityAlreadyRegistered) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (a *Account) create(ctx context.Context, req CreateAccount, verified bool) (model.User, error) {
	c, err := parseContacts(req.Identity, req.Profile)
	if err != nil {
		return model.User{}, err
	}
	if err := password.Validate(req.Password); err != nil {
		return model.User{}, err
	}

	if err := ensureAvailable(ctx, a.users, c.all()...); err != nil {
		return model.User{}, err
	}

	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := a.users.Create(ctx, model.User{
		ID:            uuid.New(),
		Email:         c.email(),
		Phone:         c.phone(),
		FirstName:     strings.TrimSpace(req.Profile.FirstName),
		LastName:      strings.TrimSpace(req.Profile.LastName),
		PasswordHash:  hash,
		Role:          req.Role,
		Status:        model.StatusActive,
		EmailVerified: verified && c.email() != "",
		PhoneVerified: verified && c.phone() != "",
	})
	if err != nil {
		if errors.Is(err, model.ErrUniqueViolation) {
			return model.User{}, model.ErrIdentityAlreadyRegistered
		}
		a.logger.Error("Account service: failed to create user",
			"identity", c.primary.Key,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Account service: account created",
		"user_id", user.ID.String(),
		"role", user.Role)

	return user.Sanitized(), nil
}

// SetStatus changes the status of an account.
func (a *Account) SetStatus(ctx context.Context, id uuid.UUID, status model.Status) (model.User, error) {
	if !status.Valid() {
		return model.User{}, model.NewInvalidInputError(fmt.Sprintf("unknown status %q", status))
	}

	user, err := a.users.Update(ctx, id, model.UserPatch{Status: &status})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to update user status: %w", err)
	}

	a.logger.Info("Account service: status changed",
		"user_id", id.String(),
		"status", status)

	return user.Sanitized(), nil
}

// UploadAvatar stores an image as the profile picture of user id. The
// previous picture is removed after the user record points at the new one.
func (a *Account) UploadAvatar(ctx context.Context, id uuid.UUID, contentType string, size int64, r io.Reader) (model.User, error) {
	if a.storage == nil {
		return model.User{}, ErrStorageDisabled
	}

	ext, ok := avatarExtensions[contentType]
	if !ok {
		return model.User{}, model.NewInvalidInputError("avatar must be a jpeg, png, webp or gif image")
	}
	if size > MaxAvatarSize {
		return model.User{}, model.NewInvalidInputError(fmt.Sprintf("avatar must be at most %d bytes", MaxAvatarSize))
	}

	user, err := a.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	key := fmt.Sprintf("avatars/%s/%s%s", id, uuid.NewString(), ext)
	if err := a.storage.Upload(ctx, key, contentType, size, r); err != nil {
		a.logger.Error("Account service: failed to upload avatar",
			"user_id", id.String(),
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to upload avatar: %w", err)
	}

	updated, err := a.users.Update(ctx, id, model.UserPatch{ProfileImage: &key})
	if err != nil {
		return model.User{}, fmt.Errorf("failed to save avatar: %w", err)
	}

	if previous := user.ProfileImage; strings.HasPrefix(previous, "avatars/") {
		if err := a.storage.Delete(ctx, previous); err != nil {
			a.logger.Warn("Account service: failed to delete previous avatar",
				"user_id", id.String(),
				"key", previous,
				"error", err.Error())
		}
	}

	return updated.Sanitized(), nil
}

// UpdateProfile applies the profile changes of an authenticated user. A new
// phone number must be free and starts out unverified.
func (a *Account) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (model.User, error) {
	user, err := a.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrInvalidToken
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.Active() {
		return model.User{}, model.ErrAccountNotActive
	}

	patch, err := a.profilePatch(ctx, user, update)
	if err != nil {
		return model.User{}, err
	}
	if patch.Empty() {
		return user.Sanitized(), nil
	}

	updated, err := a.users.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUniqueViolation):
			return model.User{}, model.ErrIdentityAlreadyRegistered
		case errors.Is(err, model.ErrNotFound):
			return model.User{}, model.ErrInvalidToken
		}
		a.logger.Error("Account service: failed to update profile",
			"user_id", id.String(),
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to update profile: %w", err)
	}

	a.logger.Info("Account service: profile updated", "user_id", id.String())

	return updated.Sanitized(), nil
}

func (a *Account) profilePatch(ctx context.Context, user model.User, update ProfileUpdate) (model.UserPatch, error) {
	var patch model.UserPatch

	if update.FirstName != nil {
		name := strings.TrimSpace(*update.FirstName)
		patch.FirstName = &name
	}
	if update.LastName != nil {
		name := strings.TrimSpace(*update.LastName)
		patch.LastName = &name
	}

	if update.Gender != nil {
		gender := model.Gender(strings.ToLower(strings.TrimSpace(*update.Gender)))
		if !gender.Valid() {
			return model.UserPatch{}, model.NewInvalidInputError("gender must be male, female or other")
		}
		patch.Gender = &gender
	}

	if update.DateOfBirth != nil {
		dob, err := time.Parse(DateOfBirthLayout, strings.TrimSpace(*update.DateOfBirth))
		if err != nil {
			return model.UserPatch{}, model.NewInvalidInputError("date of birth must be formatted as YYYY-MM-DD")
		}
		if !dob.Before(a.now()) {
			return model.UserPatch{}, model.NewInvalidInputError("date of birth must be in the past")
		}
		patch.DateOfBirth = &dob
	}

	if update.Phone != nil {
		raw := strings.TrimSpace(*update.Phone)
		if raw == "" {
			if user.Phone == "" {
				return patch, nil
			}
			if user.Email == "" {
				return model.UserPatch{}, model.NewInvalidInputError("phone is the only contact of the account")
			}
		} else {
			phone, err := model.ParsePhone(raw)
			if err != nil {
				return model.UserPatch{}, err
			}
			if phone.Key == user.Phone {
				return patch, nil
			}
			if err := ensureAvailable(ctx, a.users, phone); err != nil {
				return model.UserPatch{}, err
			}
			raw = phone.Key
		}

		verified := false
		patch.Phone = &raw
		patch.PhoneVerified = &verified
	}

	return patch, nil
}
