package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/shopwise-auth/internal/model"
)

// contacts is the normalized contact set of a new account: the primary
// identity plus the optional contact of the other kind.
type contacts struct {
	primary   model.Identity
	secondary model.Identity
}

func (c contacts) email() string {
	return c.key(model.IdentityEmail)
}

func (c contacts) phone() string {
	return c.key(model.IdentityPhone)
}

func (c contacts) key(kind model.IdentityKind) string {
	switch kind {
	case c.primary.Kind:
		return c.primary.Key
	case c.secondary.Kind:
		return c.secondary.Key
	}
	return ""
}

func (c contacts) all() []model.Identity {
	if c.secondary.IsZero() {
		return []model.Identity{c.primary}
	}
	return []model.Identity{c.primary, c.secondary}
}

// parseContacts parses raw as the primary identity. The profile field of the
// same kind is ignored; the one of the other kind becomes the secondary contact.
func parseContacts(raw string, profile model.Profile) (contacts, error) {
	primary, err := model.ParseIdentity(raw)
	if err != nil {
		return contacts{}, err
	}

	c := contacts{primary: primary}
	switch {
	case primary.Kind == model.IdentityEmail && profile.Phone != "":
		c.secondary, err = model.ParsePhone(profile.Phone)
	case primary.Kind == model.IdentityPhone && profile.Email != "":
		c.secondary, err = model.ParseEmail(profile.Email)
	}
	if err != nil {
		return contacts{}, err
	}

	return c, nil
}

// ensureAvailable fails with ErrIdentityAlreadyRegistered when a user holds
// any of identities.
func ensureAvailable(ctx context.Context, users model.UserStore, identities ...model.Identity) error {
	for _, identity := range identities {
		_, err := users.FindByIdentity(ctx, identity)
		if err == nil {
			return model.ErrIdentityAlreadyRegistered
		}
		if !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("failed to find user by %s: %w", identity.Kind, err)
		}
	}
	return nil
}
