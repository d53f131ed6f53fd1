package model

import (
	"context"
)

// ContextManager stores authenticated session claims in a request context.
type ContextManager interface {
	SetClaimsToContext(ctx context.Context, claims SessionClaims) context.Context
	GetClaimsFromContext(ctx context.Context) (SessionClaims, bool)
}
