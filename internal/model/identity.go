package model

import (
	"regexp"
	"strings"
)

// IdentityKind is the contact channel an identity key belongs to.
type IdentityKind string

const (
	IdentityEmail IdentityKind = "email"
	IdentityPhone IdentityKind = "phone"
)

const (
	maxEmailLength = 254
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9\-]+(\.[a-z0-9\-]+)*\.[a-z]{2,}$`)

// Identity is a normalized contact identifier. Key is the lookup key shared by
// the verification store and the user store.
type Identity struct {
	Kind IdentityKind
	Key  string
}

func (i Identity) String() string {
	return i.Key
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i.Key == ""
}

// ParseIdentity normalizes raw into an email or phone identity. Anything with
// an @ is treated as an email.
func ParseIdentity(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "@") {
		return ParseEmail(raw)
	}
	return ParsePhone(raw)
}

// ParseEmail lowercases and validates an email address.
func ParseEmail(raw string) (Identity, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if len(key) == 0 || len(key) > maxEmailLength || !emailPattern.MatchString(key) {
		return Identity{}, ErrInvalidIdentity
	}
	return Identity{Kind: IdentityEmail, Key: key}, nil
}

// ParsePhone strips separators and returns the number as + followed by digits.
// A 00 international prefix is read as +.
func ParsePhone(raw string) (Identity, error) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(s)
	switch {
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasPrefix(s, "00"):
		s = s[2:]
	}

	if len(s) < minPhoneDigits || len(s) > maxPhoneDigits {
		return Identity{}, ErrInvalidIdentity
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Identity{}, ErrInvalidIdentity
		}
	}

	return Identity{Kind: IdentityPhone, Key: "+" + s}, nil
}
