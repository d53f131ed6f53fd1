package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/shopwise-auth/internal/model"
)

// ErrEmptySecret is returned when the signing secret is not configured.
var ErrEmptySecret = errors.New("jwt signing secret is empty")

const typeSession = "session"

// Claims represents JWT claims of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Role      model.Role `json:"role"`
	TokenType string     `json:"typ"`
}

var _ model.TokenManager = (*JWT)(nil)

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey []byte
	now       func() time.Time
}

// NewJWT creates a new JWT token manager with the provided secret key.
func NewJWT(secretKey string) (*JWT, error) {
	if secretKey == "" {
		return nil, ErrEmptySecret
	}
	return &JWT{secretKey: []byte(secretKey), now: time.Now}, nil
}

// Issue signs a session token for claims.SubjectID and claims.Role that
// expires after ttl. IssuedAt and ExpiresAt of claims are ignored.
func (j *JWT) Issue(claims model.SessionClaims, ttl time.Duration) (model.SessionToken, error) {
	if claims.SubjectID == uuid.Nil {
		return model.SessionToken{}, fmt.Errorf("failed to sign session token: empty subject")
	}

	now := j.now().Truncate(time.Second)
	expiresAt := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.SubjectID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:      claims.Role,
		TokenType: typeSession,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return model.SessionToken{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return model.SessionToken{Value: tokenString, ExpiresAt: expiresAt.UTC()}, nil
}

// Verify validates the signature and expiry of tokenString and returns its
// claims. Every failure is reported as model.ErrInvalidToken.
func (j *JWT) Verify(tokenString string) (model.SessionClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return model.SessionClaims{}, model.ErrInvalidToken.Wrap(err)
	}
	if !token.Valid {
		return model.SessionClaims{}, model.ErrInvalidToken
	}
	if claims.TokenType != typeSession {
		return model.SessionClaims{}, model.ErrInvalidToken.Wrap(fmt.Errorf("token type mismatch: %s", claims.TokenType))
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.SessionClaims{}, model.ErrInvalidToken.Wrap(err)
	}
	if claims.IssuedAt == nil {
		return model.SessionClaims{}, model.ErrInvalidToken.Wrap(errors.New("missing iat"))
	}

	return model.SessionClaims{
		SubjectID: subjectID,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
