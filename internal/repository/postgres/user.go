package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/shopwise-auth/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, email, phone, first_name, last_name, password_hash, role, status,
	email_verified, phone_verified, profile_image, gender, date_of_birth, last_login_at, created_at, updated_at`

type UserRepository struct {
	db  *Connection
	now func() time.Time
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db:  db,
		now: time.Now,
	}
}

func (r *UserRepository) FindByIdentity(ctx context.Context, identity model.Identity) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if identity.Kind == model.IdentityPhone {
		query = `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, identity.Key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by %s: %w", identity.Kind, err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// Create inserts user. The partial unique indexes on email and phone decide
// concurrent registrations; a violation is reported as model.ErrUniqueViolation.
func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, email, phone, first_name, last_name, password_hash, role, status,
			  email_verified, phone_verified, profile_image, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING ` + userColumns

	now := r.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	saved, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, nullString(user.Email), nullString(user.Phone), user.FirstName, user.LastName,
		user.PasswordHash, string(user.Role), string(user.Status), user.EmailVerified, user.PhoneVerified,
		user.ProfileImage, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("failed to create user: %w", model.ErrUniqueViolation)
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

// Update applies patch. Taking a phone number held by another user is
// reported as model.ErrUniqueViolation.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, patch model.UserPatch) (model.User, error) {
	query := `UPDATE users SET
			  status = COALESCE($2, status),
			  profile_image = COALESCE($3, profile_image),
			  last_login_at = COALESCE($4, last_login_at),
			  first_name = COALESCE($5, first_name),
			  last_name = COALESCE($6, last_name),
			  phone = CASE WHEN $7::boolean THEN NULLIF($8::text, '') ELSE phone END,
			  phone_verified = COALESCE($9, phone_verified),
			  gender = COALESCE($10, gender),
			  date_of_birth = COALESCE($11, date_of_birth),
			  updated_at = $12
			  WHERE id = $1
			  RETURNING ` + userColumns

	var status, profileImage, lastLoginAt, firstName, lastName, phoneVerified, gender, dateOfBirth any
	if patch.Status != nil {
		status = string(*patch.Status)
	}
	if patch.ProfileImage != nil {
		profileImage = *patch.ProfileImage
	}
	if patch.LastLoginAt != nil {
		lastLoginAt = patch.LastLoginAt.UTC()
	}
	if patch.FirstName != nil {
		firstName = *patch.FirstName
	}
	if patch.LastName != nil {
		lastName = *patch.LastName
	}
	setPhone, phone := patch.Phone != nil, ""
	if setPhone {
		phone = *patch.Phone
	}
	if patch.PhoneVerified != nil {
		phoneVerified = *patch.PhoneVerified
	}
	if patch.Gender != nil {
		gender = string(*patch.Gender)
	}
	if patch.DateOfBirth != nil {
		dateOfBirth = patch.DateOfBirth.UTC()
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, status, profileImage, lastLoginAt,
		firstName, lastName, setPhone, phone, phoneVerified, gender, dateOfBirth, r.now().UTC()))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return model.User{}, model.ErrNotFound
		case isUniqueViolation(err):
			return model.User{}, fmt.Errorf("failed to update user: %w", model.ErrUniqueViolation)
		}
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var (
		user        model.User
		email       sql.NullString
		phone       sql.NullString
		role        string
		status      string
		gender      sql.NullString
		dateOfBirth sql.NullTime
		lastLoginAt sql.NullTime
	)

	err := row.Scan(
		&user.ID, &email, &phone, &user.FirstName, &user.LastName, &user.PasswordHash, &role, &status,
		&user.EmailVerified, &user.PhoneVerified, &user.ProfileImage, &gender, &dateOfBirth, &lastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}

	user.Email = email.String
	user.Phone = phone.String
	user.Role = model.Role(role)
	user.Status = model.Status(status)
	user.Gender = model.Gender(gender.String)
	if dateOfBirth.Valid {
		dob := dateOfBirth.Time
		user.DateOfBirth = &dob
	}
	if lastLoginAt.Valid {
		at := lastLoginAt.Time
		user.LastLoginAt = &at
	}

	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
