package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenManager issues and validates session tokens.
type TokenManager interface {
	Issue(claims SessionClaims, ttl time.Duration) (SessionToken, error)
	Verify(token string) (SessionClaims, error)
}

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	SubjectID uuid.UUID
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionToken is a signed bearer token.
type SessionToken struct {
	Value     string
	ExpiresAt time.Time
}
