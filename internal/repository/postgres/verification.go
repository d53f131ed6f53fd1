package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/shopwise-auth/internal/model"
)

var _ model.VerificationStore = (*VerificationRepository)(nil)

// VerificationRepository keeps verification codes in the verification_codes
// table, one row per identity key.
type VerificationRepository struct {
	db  *Connection
	now func() time.Time
}

func NewVerificationRepository(db *Connection) *VerificationRepository {
	return &VerificationRepository{
		db:  db,
		now: time.Now,
	}
}

// SetCode upserts the row for key, resetting its state.
func (r *VerificationRepository) SetCode(ctx context.Context, key, code string, ttl time.Duration) error {
	query := `INSERT INTO verification_codes (identity_key, code, created_at, expires_at, verified, attempts)
			  VALUES ($1, $2, $3, $4, FALSE, 0)
			  ON CONFLICT (identity_key) DO UPDATE SET
			  code = EXCLUDED.code,
			  created_at = EXCLUDED.created_at,
			  expires_at = EXCLUDED.expires_at,
			  verified = FALSE,
			  attempts = 0`

	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx, query, key, code, now, now.Add(ttl))
	if err != nil {
		return fmt.Errorf("failed to set verification code: %w", err)
	}

	return nil
}

func (r *VerificationRepository) CheckCode(ctx context.Context, key string) (string, bool, error) {
	rec, ok, err := r.load(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	return rec.Code, true, nil
}

// MarkVerified flags a live row; missing or expired rows are left untouched.
func (r *VerificationRepository) MarkVerified(ctx context.Context, key string) error {
	query := `UPDATE verification_codes SET verified = TRUE WHERE identity_key = $1 AND expires_at >= $2`

	_, err := r.db.ExecContext(ctx, query, key, r.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark code verified: %w", err)
	}

	return nil
}

func (r *VerificationRepository) IsVerified(ctx context.Context, key string) (bool, error) {
	rec, ok, err := r.load(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return rec.Verified, nil
}

func (r *VerificationRepository) DeleteCode(ctx context.Context, key string) error {
	query := `DELETE FROM verification_codes WHERE identity_key = $1`

	_, err := r.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}

	return nil
}

// RegisterFailure increments the attempt counter of a live row and drops the
// row once it reaches maxAttempts.
func (r *VerificationRepository) RegisterFailure(ctx context.Context, key string, maxAttempts int) (int, error) {
	query := `UPDATE verification_codes SET attempts = attempts + 1
			  WHERE identity_key = $1 AND expires_at >= $2
			  RETURNING attempts`

	var attempts int
	err := r.db.QueryRowContext(ctx, query, key, r.now().UTC()).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to register failed attempt: %w", err)
	}

	if maxAttempts > 0 && attempts >= maxAttempts {
		// A code reissued since the increment has its counter reset and stays.
		drop := `DELETE FROM verification_codes WHERE identity_key = $1 AND attempts >= $2`
		if _, err := r.db.ExecContext(ctx, drop, key, maxAttempts); err != nil {
			return 0, fmt.Errorf("failed to drop exhausted verification code: %w", err)
		}
	}

	return attempts, nil
}

// Sweep deletes every expired row.
func (r *VerificationRepository) Sweep(ctx context.Context) (int, error) {
	query := `DELETE FROM verification_codes WHERE expires_at < $1`

	res, err := r.db.ExecContext(ctx, query, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep verification codes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count swept verification codes: %w", err)
	}

	return int(n), nil
}

func (r *VerificationRepository) load(ctx context.Context, key string) (model.VerificationRecord, bool, error) {
	query := `SELECT identity_key, code, created_at, expires_at, verified, attempts
			  FROM verification_codes WHERE identity_key = $1`

	var rec model.VerificationRecord
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&rec.Key, &rec.Code, &rec.CreatedAt, &rec.ExpiresAt, &rec.Verified, &rec.Attempts,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.VerificationRecord{}, false, nil
		}
		return model.VerificationRecord{}, false, fmt.Errorf("failed to read verification code: %w", err)
	}

	if rec.Expired(r.now()) {
		// The expires_at guard keeps a concurrent SetCode for the same key intact.
		_, err := r.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE identity_key = $1 AND expires_at = $2`,
			key, rec.ExpiresAt)
		if err != nil {
			return model.VerificationRecord{}, false, fmt.Errorf("failed to delete expired verification code: %w", err)
		}
		return model.VerificationRecord{}, false, nil
	}

	return rec, true, nil
}
