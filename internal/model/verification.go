package model

import (
	"context"
	"time"
)

const (
	// DefaultCodeTTL is the lifetime of a verification code.
	DefaultCodeTTL = 5 * time.Minute
	// DefaultMaxAttempts is the number of wrong codes accepted before the record is dropped.
	DefaultMaxAttempts = 5
)

// VerificationStore keeps short-lived verification codes keyed by identity.
//
// Missing and expired records are reported as ok == false; errors are
// reserved for an unreachable backend. Reading an expired record deletes it.
type VerificationStore interface {
	SetCode(ctx context.Context, key, code string, ttl time.Duration) error
	CheckCode(ctx context.Context, key string) (code string, ok bool, err error)
	MarkVerified(ctx context.Context, key string) error
	IsVerified(ctx context.Context, key string) (bool, error)
	DeleteCode(ctx context.Context, key string) error
	// RegisterFailure counts a wrong code and deletes the record once
	// attempts reach maxAttempts. It returns the attempts made so far, or 0
	// if the record does not exist.
	RegisterFailure(ctx context.Context, key string, maxAttempts int) (int, error)
}

// VerificationRecord is a stored verification code.
type VerificationRecord struct {
	Key       string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
	Verified  bool
	Attempts  int
}

// Expired reports whether the record is past its expiry at now.
func (r VerificationRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// RequestLimiter bounds how often a key may trigger a code.
type RequestLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
