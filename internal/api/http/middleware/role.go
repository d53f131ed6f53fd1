package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dtroode/shopwise-auth/internal/model"
)

// RequireRole allows the request through only when the authenticated role is
// one of roles. It must run after Authenticate.
func RequireRole(contextManager model.ContextManager, roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := contextManager.GetClaimsFromContext(c.Request().Context())
			if !ok {
				return model.ErrInvalidToken
			}
			if !allowed[claims.Role] {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
