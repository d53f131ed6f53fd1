package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/shopwise-auth/internal/logger"
	"github.com/dtroode/shopwise-auth/internal/model"
)

const defaultSessionTTL = 24 * time.Hour

// dummyPassword is hashed once and compared against when the identity is
// unknown, so both failures cost one bcrypt comparison.
const dummyPassword = "shopwise-dummy-password"

type Auth struct {
	users      model.UserStore
	hasher     model.PasswordHasher
	tokens     model.TokenManager
	sessionTTL time.Duration
	logger     *logger.Logger
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuth(
	users model.UserStore,
	hasher model.PasswordHasher,
	tokens model.TokenManager,
	sessionTTL time.Duration,
	logger *logger.Logger,
) *Auth {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &Auth{
		users:      users,
		hasher:     hasher,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Login authenticates identity with a password.
func (a *Auth) Login(ctx context.Context, identity, plain string) (model.Session, error) {
	return a.login(ctx, identity, plain, func(model.Role) bool { return true })
}

// AdminLogin is Login restricted to admin roles.
func (a *Auth) AdminLogin(ctx context.Context, identity, plain string) (model.Session, error) {
	return a.login(ctx, identity, plain, model.Role.IsAdmin)
}

func (a *Auth) login(ctx context.Context, identity, plain string, allowed func(model.Role) bool) (model.Session, error) {
	id, err := model.ParseIdentity(identity)
	if err != nil {
		return model.Session{}, err
	}

	a.logger.Debug("Auth service: login attempt",
		"identity", id.Key)

	user, err := a.users.FindByIdentity(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			a.hasher.Compare(plain, a.dummy())
			a.logger.Info("Auth service: login failed",
				"identity", id.Key)
			return model.Session{}, model.ErrInvalidCredentials
		}
		a.logger.Error("Auth service: failed to find user",
			"identity", id.Key,
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to find user: %w", err)
	}

	if !a.hasher.Compare(plain, user.PasswordHash) || !user.Active() || !allowed(user.Role) {
		a.logger.Info("Auth service: login failed",
			"identity", id.Key,
			"user_id", user.ID.String())
		return model.Session{}, model.ErrInvalidCredentials
	}

	now := a.now().UTC()
	updated, err := a.users.Update(ctx, user.ID, model.UserPatch{LastLoginAt: &now})
	if err != nil {
		a.logger.Error("Auth service: failed to record login",
			"user_id", user.ID.String(),
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to update last login: %w", err)
	}
	user = updated

	token, err := a.tokens.Issue(model.SessionClaims{SubjectID: user.ID, Role: user.Role}, a.sessionTTL)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to issue session token: %w", err)
	}

	a.logger.Info("Auth service: user logged in",
		"user_id", user.ID.String(),
		"role", user.Role)

	return model.Session{User: user.Sanitized(), Token: token}, nil
}

// Logout checks that token is a valid session token. Tokens are stateless,
// the client discards its copy.
func (a *Auth) Logout(ctx context.Context, token string) error {
	claims, err := a.Authenticate(ctx, token)
	if err != nil {
		return err
	}

	a.logger.Info("Auth service: user logged out",
		"user_id", claims.SubjectID.String())

	return nil
}

// Authenticate returns the claims of a valid session token.
func (a *Auth) Authenticate(_ context.Context, token string) (model.SessionClaims, error) {
	if token == "" {
		return model.SessionClaims{}, model.ErrInvalidToken
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		if model.KindOf(err) == model.KindInvalidToken {
			return model.SessionClaims{}, err
		}
		return model.SessionClaims{}, model.ErrInvalidToken.Wrap(err)
	}

	return claims, nil
}

// Profile returns the sanitized account of an authenticated user.
func (a *Auth) Profile(ctx context.Context, id uuid.UUID) (model.User, error) {
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

	return user.Sanitized(), nil
}

func (a *Auth) dummy() string {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash(dummyPassword)
		if err != nil {
			a.logger.Error("Auth service: failed to prepare dummy hash", "error", err.Error())
			return
		}
		a.dummyHash = hash
	})
	return a.dummyHash
}
