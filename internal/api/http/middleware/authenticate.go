package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dtroode/shopwise-auth/internal/logger"
	"github.com/dtroode/shopwise-auth/internal/model"
)

// CookieName is the cookie carrying the session token.
const CookieName = "token"

// Authenticator resolves session claims from a token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.SessionClaims, error)
}

// Authenticate validates the session token and puts its claims into the
// request context.
type Authenticate struct {
	authenticator  Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(authenticator Authenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{authenticator: authenticator, contextManager: contextManager, logger: logger}
}

// Handle rejects requests without a valid token with ErrInvalidToken.
func (m *Authenticate) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := TokenFromRequest(c)
		if token == "" {
			return model.ErrInvalidToken
		}

		req := c.Request()
		claims, err := m.authenticator.Authenticate(req.Context(), token)
		if err != nil {
			m.logger.Debug("authentication failed",
				"path", c.Path(),
				"error", err.Error())
			return err
		}

		c.SetRequest(req.WithContext(m.contextManager.SetClaimsToContext(req.Context(), claims)))
		return next(c)
	}
}

// TokenFromRequest returns the bearer token of the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}

	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
