package context

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/shopwise-auth/internal/model"
)

func TestManager_Claims(t *testing.T) {
	m := NewManager()

	_, ok := m.GetClaimsFromContext(context.Background())
	assert.False(t, ok)

	claims := model.SessionClaims{SubjectID: uuid.New(), Role: model.RoleAdmin}
	ctx := m.SetClaimsToContext(context.Background(), claims)

	got, ok := m.GetClaimsFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims, got)

	other := model.SessionClaims{SubjectID: uuid.New(), Role: model.RoleCustomer}
	got, ok = m.GetClaimsFromContext(m.SetClaimsToContext(ctx, other))
	assert.True(t, ok)
	assert.Equal(t, other, got, "inner value wins")
}
