// Package redis implements the verification store and request limiter on Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/shopwise-auth/internal/model"
)

const (
	verificationKeyPrefix = "verification:"
	maxTxRetries          = 4
)

const (
	fieldCode      = "code"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
	fieldVerified  = "verified"
	fieldAttempts  = "attempts"
)

var errTxRetriesExhausted = errors.New("verification record kept changing during update")

var _ model.VerificationStore = (*VerificationStore)(nil)

// VerificationStore keeps one hash per identity key. The key carries a Redis
// TTL so abandoned records disappear without a sweep; expires_at is checked
// on every read as well.
type VerificationStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewVerificationStore creates a store on client.
func NewVerificationStore(client *redis.Client) *VerificationStore {
	return &VerificationStore{client: client, now: time.Now}
}

func (s *VerificationStore) key(identityKey string) string {
	return verificationKeyPrefix + identityKey
}

// SetCode replaces the record for key in a single transaction.
func (s *VerificationStore) SetCode(ctx context.Context, key, code string, ttl time.Duration) error {
	now := s.now()
	rk := s.key(key)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, rk)
		pipe.HSet(ctx, rk,
			fieldCode, code,
			fieldCreatedAt, now.UnixMilli(),
			fieldExpiresAt, now.Add(ttl).UnixMilli(),
			fieldVerified, 0,
			fieldAttempts, 0,
		)
		pipe.PExpire(ctx, rk, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set verification code: %w", err)
	}
	return nil
}

// CheckCode returns the live code for key.
func (s *VerificationStore) CheckCode(ctx context.Context, key string) (string, bool, error) {
	rec, ok, err := s.load(ctx, key)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return rec.Code, true, nil
}

// MarkVerified sets the verified flag of a live record. HSET keeps the key TTL.
func (s *VerificationStore) MarkVerified(ctx context.Context, key string) error {
	err := s.update(ctx, key, func(tx *redis.Tx, rk string, rec model.VerificationRecord) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, rk, fieldVerified, 1)
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to mark code verified: %w", err)
	}
	return nil
}

// IsVerified reports whether a live verified record exists for key.
func (s *VerificationStore) IsVerified(ctx context.Context, key string) (bool, error) {
	rec, ok, err := s.load(ctx, key)
	if err != nil {
		return false, err
	}
	return ok && rec.Verified, nil
}

// DeleteCode removes the record for key.
func (s *VerificationStore) DeleteCode(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}
	return nil
}

// RegisterFailure increments the attempt counter and drops the record at maxAttempts.
func (s *VerificationStore) RegisterFailure(ctx context.Context, key string, maxAttempts int) (int, error) {
	// Only a committed transaction publishes its count, so a retry that finds
	// the record gone reports zero attempts.
	attempts := 0
	err := s.update(ctx, key, func(tx *redis.Tx, rk string, rec model.VerificationRecord) error {
		next := rec.Attempts + 1
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if maxAttempts > 0 && next >= maxAttempts {
				pipe.Del(ctx, rk)
				return nil
			}
			pipe.HSet(ctx, rk, fieldAttempts, next)
			return nil
		})
		if err != nil {
			return err
		}
		attempts = next
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to register failed attempt: %w", err)
	}
	return attempts, nil
}

// load reads the record for key and deletes it if expired.
func (s *VerificationStore) load(ctx context.Context, key string) (model.VerificationRecord, bool, error) {
	rk := s.key(key)
	fields, err := s.client.HGetAll(ctx, rk).Result()
	if err != nil {
		return model.VerificationRecord{}, false, fmt.Errorf("failed to read verification code: %w", err)
	}

	rec, ok := decodeRecord(key, fields)
	if !ok {
		return model.VerificationRecord{}, false, nil
	}
	if rec.Expired(s.now()) {
		if err := s.client.Del(ctx, rk).Err(); err != nil {
			return model.VerificationRecord{}, false, fmt.Errorf("failed to delete expired verification code: %w", err)
		}
		return model.VerificationRecord{}, false, nil
	}
	return rec, true, nil
}

// update runs fn inside WATCH on the record key when a live record exists.
// Missing records are left alone; expired ones are deleted.
func (s *VerificationStore) update(
	ctx context.Context,
	key string,
	fn func(tx *redis.Tx, rk string, rec model.VerificationRecord) error,
) error {
	rk := s.key(key)

	for range maxTxRetries {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			fields, err := tx.HGetAll(ctx, rk).Result()
			if err != nil {
				return err
			}

			rec, ok := decodeRecord(key, fields)
			if !ok {
				return nil
			}
			if rec.Expired(s.now()) {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, rk)
					return nil
				})
				return err
			}

			return fn(tx, rk, rec)
		}, rk)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return errTxRetriesExhausted
}

// decodeRecord parses a stored hash. An empty or damaged hash reads as missing.
func decodeRecord(key string, fields map[string]string) (model.VerificationRecord, bool) {
	code, ok := fields[fieldCode]
	if !ok {
		return model.VerificationRecord{}, false
	}

	createdAt, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return model.VerificationRecord{}, false
	}
	expiresAt, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64)
	if err != nil {
		return model.VerificationRecord{}, false
	}
	attempts, err := strconv.Atoi(fields[fieldAttempts])
	if err != nil {
		attempts = 0
	}

	return model.VerificationRecord{
		Key:       key,
		Code:      code,
		CreatedAt: time.UnixMilli(createdAt),
		ExpiresAt: time.UnixMilli(expiresAt),
		Verified:  fields[fieldVerified] == "1",
		Attempts:  attempts,
	}, true
}
