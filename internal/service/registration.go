package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/shopwise-auth/internal/logger"
	"github.com/dtroode/shopwise-auth/internal/model"
	"github.com/dtroode/shopwise-auth/internal/otp"
	"github.com/dtroode/shopwise-auth/internal/password"
)

// RegistrationConfig holds the tunables of the registration flow.
type RegistrationConfig struct {
	CodeLength  int
	CodeTTL     time.Duration
	MaxAttempts int
	SessionTTL  time.Duration
}

// CodeAck acknowledges that a code was issued. It never carries the code.
type CodeAck struct {
	Identity  model.Identity
	ExpiresIn time.Duration
}

// Registration drives an identity from Unstarted through CodeSent and
// CodeVerified to a created account.
type Registration struct {
	users    model.UserStore
	codes    model.VerificationStore
	limiter  model.RequestLimiter
	notifier model.Notifier
	hasher   model.PasswordHasher
	tokens   model.TokenManager
	generate func() string
	cfg      RegistrationConfig
	logger   *logger.Logger
}

// NewRegistration creates the registration service. limiter may be nil.
func NewRegistration(
	users model.UserStore,
	codes model.VerificationStore,
	limiter model.RequestLimiter,
	notifier model.Notifier,
	hasher model.PasswordHasher,
	tokens model.TokenManager,
	cfg RegistrationConfig,
	logger *logger.Logger,
) *Registration {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = otp.DefaultLength
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = model.DefaultCodeTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = model.DefaultMaxAttempts
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	return &Registration{
		users:    users,
		codes:    codes,
		limiter:  limiter,
		notifier: notifier,
		hasher:   hasher,
		tokens:   tokens,
		generate: otp.NewGenerator(cfg.CodeLength).Generate,
		cfg:      cfg,
		logger:   logger,
	}
}

// RequestCode sends a verification code to an identity nobody has registered yet.
func (r *Registration) RequestCode(ctx context.Context, identity string, profile model.Profile) (CodeAck, error) {
	c, err := parseContacts(identity, profile)
	if err != nil {
		return CodeAck{}, err
	}

	r.logger.Debug("Registration service: code requested",
		"identity", c.primary.Key,
		"kind", c.primary.Kind)

	if err := r.allow(ctx, c.primary); err != nil {
		return CodeAck{}, err
	}

	if err := ensureAvailable(ctx, r.users, c.all()...); err != nil {
		if !errors.Is(err, model.ErrIdentityAlreadyRegistered) {
			r.logger.Error("Registration service: failed to check identity",
				"identity", c.primary.Key,
				"error", err.Error())
		}
		return CodeAck{}, err
	}

	return r.issueCode(ctx, c.primary)
}

// ResendCode replaces the live code of identity with a new one.
func (r *Registration) ResendCode(ctx context.Context, identity string) (CodeAck, error) {
	id, err := model.ParseIdentity(identity)
	if err != nil {
		return CodeAck{}, err
	}

	if err := r.allow(ctx, id); err != nil {
		return CodeAck{}, err
	}

	_, ok, err := r.codes.CheckCode(ctx, id.Key)
	if err != nil {
		r.logger.Error("Registration service: failed to read verification code",
			"identity", id.Key,
			"error", err.Error())
		return CodeAck{}, fmt.Errorf("failed to read verification code: %w", err)
	}
	if !ok {
		return CodeAck{}, model.ErrCodeExpiredOrMissing
	}

	return r.issueCode(ctx, id)
}

// VerifyCode compares code with the live code of identity and marks the
// record verified on a match.
func (r *Registration) VerifyCode(ctx context.Context, identity, code string) error {
	id, err := model.ParseIdentity(identity)
	if err != nil {
		return err
	}

	submitted := normalizeCode(code, r.cfg.CodeLength)
	if submitted == "" {
		return model.NewInvalidInputError("verification code is required")
	}

	stored, ok, err := r.codes.CheckCode(ctx, id.Key)
	if err != nil {
		r.logger.Error("Registration service: failed to read verification code",
			"identity", id.Key,
			"error", err.Error())
		return fmt.Errorf("failed to read verification code: %w", err)
	}
	if !ok {
		return model.ErrCodeExpiredOrMissing
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) != 1 {
		return r.registerFailure(ctx, id)
	}

	if err := r.codes.MarkVerified(ctx, id.Key); err != nil {
		r.logger.Error("Registration service: failed to mark code verified",
			"identity", id.Key,
			"error", err.Error())
		return fmt.Errorf("failed to mark code verified: %w", err)
	}

	r.logger.Info("Registration service: identity verified",
		"identity", id.Key)

	return nil
}

// Finalize creates the account of a verified identity and opens a session.
func (r *Registration) Finalize(ctx context.Context, identity string, profile model.Profile, plain string) (model.Session, error) {
	c, err := parseContacts(identity, profile)
	if err != nil {
		return model.Session{}, err
	}
	if err := password.Validate(plain); err != nil {
		return model.Session{}, err
	}

	r.logger.Debug("Registration service: finalizing registration",
		"identity", c.primary.Key)

	verified, err := r.codes.IsVerified(ctx, c.primary.Key)
	if err != nil {
		r.logger.Error("Registration service: failed to read verification state",
			"identity", c.primary.Key,
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to read verification state: %w", err)
	}
	if !verified {
		// A finished registration consumes the record, so a missing record
		// next to an existing user means this call lost a race.
		if err := ensureAvailable(ctx, r.users, c.primary); err != nil {
			return model.Session{}, err
		}
		return model.Session{}, model.ErrNotVerified
	}

	if err := ensureAvailable(ctx, r.users, c.all()...); err != nil {
		return model.Session{}, err
	}

	hash, err := r.hasher.Hash(plain)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := r.users.Create(ctx, model.User{
		ID:            uuid.New(),
		Email:         c.email(),
		Phone:         c.phone(),
		FirstName:     strings.TrimSpace(profile.FirstName),
		LastName:      strings.TrimSpace(profile.LastName),
		PasswordHash:  hash,
		Role:          model.RoleCustomer,
		Status:        model.StatusActive,
		EmailVerified: c.primary.Kind == model.IdentityEmail,
		PhoneVerified: c.primary.Kind == model.IdentityPhone,
	})
	if err != nil {
		if errors.Is(err, model.ErrUniqueViolation) {
			r.logger.Info("Registration service: identity registered concurrently",
				"identity", c.primary.Key)
			return model.Session{}, model.ErrIdentityAlreadyRegistered
		}
		r.logger.Error("Registration service: failed to create user",
			"identity", c.primary.Key,
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to create user: %w", err)
	}

	if err := r.codes.DeleteCode(ctx, c.primary.Key); err != nil {
		r.logger.Warn("Registration service: failed to delete verification code",
			"identity", c.primary.Key,
			"error", err.Error())
	}

	token, err := r.tokens.Issue(model.SessionClaims{SubjectID: user.ID, Role: user.Role}, r.cfg.SessionTTL)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to issue session token: %w", err)
	}

	r.logger.Info("Registration service: user registered",
		"identity", c.primary.Key,
		"user_id", user.ID.String())

	return model.Session{User: user.Sanitized(), Token: token}, nil
}

func (r *Registration) allow(ctx context.Context, id model.Identity) error {
	if r.limiter == nil {
		return nil
	}

	allowed, err := r.limiter.Allow(ctx, id.Key)
	if err != nil {
		r.logger.Error("Registration service: failed to check request limit",
			"identity", id.Key,
			"error", err.Error())
		return fmt.Errorf("failed to check request limit: %w", err)
	}
	if !allowed {
		r.logger.Info("Registration service: request limit reached",
			"identity", id.Key)
		return model.ErrRateLimited
	}

	return nil
}

func (r *Registration) issueCode(ctx context.Context, id model.Identity) (CodeAck, error) {
	code := r.generate()

	if err := r.codes.SetCode(ctx, id.Key, code, r.cfg.CodeTTL); err != nil {
		r.logger.Error("Registration service: failed to store verification code",
			"identity", id.Key,
			"error", err.Error())
		return CodeAck{}, fmt.Errorf("failed to store verification code: %w", err)
	}

	err := r.notifier.Send(ctx, id, model.Message{
		Kind:      model.MessageVerificationCode,
		Subject:   "Your verification code",
		Body:      fmt.Sprintf("Your verification code is %s. It expires in %s.", code, r.cfg.CodeTTL),
		ExpiresIn: r.cfg.CodeTTL,
	})
	if err != nil {
		r.logger.Error("Registration service: failed to send verification code",
			"identity", id.Key,
			"error", err.Error())
		if model.KindOf(err) == model.KindDelivery {
			return CodeAck{}, err
		}
		return CodeAck{}, model.ErrDelivery.Wrap(err)
	}

	r.logger.Info("Registration service: verification code sent",
		"identity", id.Key,
		"kind", id.Kind)

	return CodeAck{Identity: id, ExpiresIn: r.cfg.CodeTTL}, nil
}

func (r *Registration) registerFailure(ctx context.Context, id model.Identity) error {
	attempts, err := r.codes.RegisterFailure(ctx, id.Key, r.cfg.MaxAttempts)
	if err != nil {
		r.logger.Error("Registration service: failed to count failed attempt",
			"identity", id.Key,
			"error", err.Error())
		return fmt.Errorf("failed to count failed attempt: %w", err)
	}

	switch {
	case attempts == 0:
		return model.ErrCodeExpiredOrMissing
	case attempts >= r.cfg.MaxAttempts:
		r.logger.Info("Registration service: verification attempts exhausted",
			"identity", id.Key)
		return model.ErrAttemptsExceeded
	}

	r.logger.Debug("Registration service: code mismatch",
		"identity", id.Key,
		"attempts", attempts)

	return model.ErrCodeMismatch
}

// normalizeCode trims the submitted code and left-pads numeric input that
// lost its leading zeros on the way in.
func normalizeCode(code string, length int) string {
	code = strings.TrimSpace(code)
	if code == "" || len(code) >= length {
		return code
	}
	for _, ch := range code {
		if ch < '0' || ch > '9' {
			return code
		}
	}
	return strings.Repeat("0", length-len(code)) + code
}
