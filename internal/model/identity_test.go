package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Identity
		wantErr bool
	}{
		{name: "email lowercased", raw: "  A@X.com ", want: Identity{Kind: IdentityEmail, Key: "a@x.com"}},
		{name: "email with plus", raw: "john.doe+shop@mail.example.org", want: Identity{Kind: IdentityEmail, Key: "john.doe+shop@mail.example.org"}},
		{name: "email without domain", raw: "john@", wantErr: true},
		{name: "email without tld", raw: "john@localhost", wantErr: true},
		{name: "phone with separators", raw: "+1 (555) 010-2030", want: Identity{Kind: IdentityPhone, Key: "+15550102030"}},
		{name: "phone with 00 prefix", raw: "0044 20 7946 0958", want: Identity{Kind: IdentityPhone, Key: "+442079460958"}},
		{name: "phone digits only", raw: "9876543210", want: Identity{Kind: IdentityPhone, Key: "+9876543210"}},
		{name: "phone too short", raw: "12345", wantErr: true},
		{name: "phone with letters", raw: "555-CALL-NOW", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIdentity(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidIdentity))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestError_IsMatchesKind(t *testing.T) {
	wrapped := fmt.Errorf("finalize: %w", ErrDelivery.Wrap(errors.New("broker down")))

	assert.True(t, errors.Is(wrapped, ErrDelivery))
	assert.False(t, errors.Is(wrapped, ErrCodeMismatch))
	assert.Equal(t, KindDelivery, KindOf(wrapped))
	assert.Contains(t, wrapped.Error(), "broker down")
}

func TestKindOf_UnknownErrorIsInfrastructure(t *testing.T) {
	assert.Equal(t, KindInfrastructure, KindOf(errors.New("connection refused")))
	assert.Equal(t, KindInfrastructure, KindOf(ErrNotFound))
}

func TestUser_Sanitized(t *testing.T) {
	u := User{Email: "a@x.com", PasswordHash: "$2a$10$hash"}

	clean := u.Sanitized()

	assert.Empty(t, clean.PasswordHash)
	assert.Equal(t, "a@x.com", clean.Email)
	assert.Equal(t, "$2a$10$hash", u.PasswordHash)
}

func TestRoleAndStatus_Valid(t *testing.T) {
	assert.True(t, RoleDeliveryBoy.Valid())
	assert.False(t, Role("user").Valid())
	assert.True(t, RoleSuperAdmin.IsAdmin())
	assert.False(t, RoleVendor.IsAdmin())
	assert.True(t, StatusBanned.Valid())
	assert.False(t, Status("deleted").Valid())
}
