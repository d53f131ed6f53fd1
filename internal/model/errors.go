package model

import (
	"errors"
	"fmt"
)

// Storage level errors returned by stores.
var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// ErrorKind is a stable, machine readable error code.
type ErrorKind string

const (
	KindInvalidIdentity           ErrorKind = "invalid_identity"
	KindIdentityAlreadyRegistered ErrorKind = "identity_already_registered"
	KindCodeExpiredOrMissing      ErrorKind = "code_expired_or_missing"
	KindCodeMismatch              ErrorKind = "code_mismatch"
	KindAttemptsExceeded          ErrorKind = "attempts_exceeded"
	KindNotVerified               ErrorKind = "not_verified"
	KindInvalidCredentials        ErrorKind = "invalid_credentials"
	KindInvalidToken              ErrorKind = "invalid_token"
	KindAccountNotActive          ErrorKind = "account_not_active"
	KindInvalidInput              ErrorKind = "invalid_input"
	KindNotFound                  ErrorKind = "not_found"
	KindRateLimited               ErrorKind = "rate_limited"
	KindDelivery                  ErrorKind = "delivery_error"
	KindInfrastructure            ErrorKind = "infrastructure_error"
)

// Error is a business failure returned to callers of the services.
// Two errors are equal for errors.Is when their kinds match.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: cause}
}

var (
	ErrInvalidIdentity           = NewError(KindInvalidIdentity, "invalid email or phone number")
	ErrIdentityAlreadyRegistered = NewError(KindIdentityAlreadyRegistered, "user with this email or phone number already exists")
	ErrCodeExpiredOrMissing      = NewError(KindCodeExpiredOrMissing, "verification code expired or not found, request a new one")
	ErrCodeMismatch              = NewError(KindCodeMismatch, "invalid verification code")
	ErrAttemptsExceeded          = NewError(KindAttemptsExceeded, "too many invalid attempts, request a new code")
	ErrNotVerified               = NewError(KindNotVerified, "verification code not confirmed, verify it first")
	ErrInvalidCredentials        = NewError(KindInvalidCredentials, "invalid credentials")
	ErrInvalidToken              = NewError(KindInvalidToken, "invalid or expired token")
	ErrAccountNotActive          = NewError(KindAccountNotActive, "account is not active")
	ErrUserNotFound              = NewError(KindNotFound, "user not found")
	ErrRateLimited               = NewError(KindRateLimited, "too many requests, try again later")
	ErrDelivery                  = NewError(KindDelivery, "failed to deliver verification code")
)

// NewInvalidInputError reports a malformed request field.
func NewInvalidInputError(message string) *Error {
	return NewError(KindInvalidInput, message)
}

// KindOf returns the kind of a business error, or KindInfrastructure for
// anything else.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInfrastructure
}
