// Package context carries authenticated session claims through a request.
package context

import (
	"context"

	"github.com/dtroode/shopwise-auth/internal/model"
)

type claimsKey struct{}

var _ model.ContextManager = (*Manager)(nil)

// Manager stores session claims as a request context value.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// SetClaimsToContext returns a copy of ctx carrying claims.
func (m *Manager) SetClaimsToContext(ctx context.Context, claims model.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaimsFromContext returns the claims stored by SetClaimsToContext.
func (m *Manager) GetClaimsFromContext(ctx context.Context) (model.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(model.SessionClaims)
	return claims, ok
}
