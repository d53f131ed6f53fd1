package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/shopwise-auth/internal/model"
)

const (
	// MinLength is the shortest accepted password.
	MinLength = 6
	// MaxLength is the longest password bcrypt can hash without truncation.
	MaxLength = 72
)

var _ model.PasswordHasher = (*Bcrypt)(nil)

// Bcrypt hashes passwords with bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a hasher with the given cost, clamped to the range bcrypt supports.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Bcrypt{cost: cost}
}

// Hash returns a salted bcrypt hash of plain.
func (b *Bcrypt) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether plain matches hash. A malformed hash never matches.
func (b *Bcrypt) Compare(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Validate checks the password policy.
func Validate(plain string) error {
	switch {
	case len(plain) < MinLength:
		return model.NewInvalidInputError(fmt.Sprintf("password must be at least %d characters", MinLength))
	case len(plain) > MaxLength:
		return model.NewInvalidInputError(fmt.Sprintf("password must be at most %d bytes", MaxLength))
	}
	return nil
}
