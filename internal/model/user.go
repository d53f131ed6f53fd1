package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
//
// Create must fail with ErrUniqueViolation when another user already holds
// the email or the phone of the new record.
type UserStore interface {
	FindByIdentity(ctx context.Context, identity Identity) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, id uuid.UUID, patch UserPatch) (User, error)
}

// Role is a user role.
type Role string

const (
	RoleCustomer    Role = "customer"
	RoleAdmin       Role = "admin"
	RoleSuperAdmin  Role = "super_admin"
	RoleVendor      Role = "vendor"
	RoleDeliveryBoy Role = "delivery_boy"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleSuperAdmin, RoleVendor, RoleDeliveryBoy:
		return true
	}
	return false
}

// IsAdmin reports whether r grants access to the admin surface.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Status is an account status.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusBanned    Status = "banned"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusBanned:
		return true
	}
	return false
}

// Gender is the optional gender of a user.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// User represents a stored account.
type User struct {
	ID            uuid.UUID
	Email         string
	Phone         string
	FirstName     string
	LastName      string
	PasswordHash  string
	Role          Role
	Status        Status
	EmailVerified bool
	PhoneVerified bool
	ProfileImage  string
	Gender        Gender
	DateOfBirth   *time.Time
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Sanitized returns a copy of the user without the credential.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// Active reports whether the account may authenticate.
func (u User) Active() bool {
	return u.Status == StatusActive
}

// UserPatch lists the mutable fields of a user. Nil fields are left untouched.
// An empty Phone removes the phone number.
type UserPatch struct {
	Status        *Status
	ProfileImage  *string
	LastLoginAt   *time.Time
	FirstName     *string
	LastName      *string
	Phone         *string
	PhoneVerified *bool
	Gender        *Gender
	DateOfBirth   *time.Time
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p == UserPatch{}
}

// Profile holds the optional fields a client supplies about itself.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// Session is the result of a successful registration or login.
type Session struct {
	User  User
	Token SessionToken
}
