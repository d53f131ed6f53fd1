// Package memory holds in-process implementations of the stores, used for
// local runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dtroode/shopwise-auth/internal/model"
)

var _ model.VerificationStore = (*VerificationStore)(nil)

// VerificationStore keeps verification records in a map guarded by a mutex.
type VerificationStore struct {
	mu      sync.Mutex
	records map[string]model.VerificationRecord
	now     func() time.Time
}

// NewVerificationStore creates an empty store.
func NewVerificationStore() *VerificationStore {
	return &VerificationStore{
		records: make(map[string]model.VerificationRecord),
		now:     time.Now,
	}
}

// SetCode replaces any record stored for key.
func (s *VerificationStore) SetCode(_ context.Context, key, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.records[key] = model.VerificationRecord{
		Key:       key,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	return nil
}

// CheckCode returns the live code for key.
func (s *VerificationStore) CheckCode(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.live(key)
	if !ok {
		return "", false, nil
	}
	return rec.Code, true, nil
}

// MarkVerified flags a live record as verified without touching its expiry.
func (s *VerificationStore) MarkVerified(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.live(key)
	if !ok {
		return nil
	}
	rec.Verified = true
	s.records[key] = rec
	return nil
}

// IsVerified reports whether a live verified record exists for key.
func (s *VerificationStore) IsVerified(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.live(key)
	return ok && rec.Verified, nil
}

// DeleteCode removes the record for key.
func (s *VerificationStore) DeleteCode(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// RegisterFailure counts a wrong code for key.
func (s *VerificationStore) RegisterFailure(_ context.Context, key string, maxAttempts int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.live(key)
	if !ok {
		return 0, nil
	}
	rec.Attempts++
	if maxAttempts > 0 && rec.Attempts >= maxAttempts {
		delete(s.records, key)
		return rec.Attempts, nil
	}
	s.records[key] = rec
	return rec.Attempts, nil
}

// Sweep drops every expired record and returns how many were removed.
func (s *VerificationStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored records, expired ones included.
func (s *VerificationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// live returns the record for key, deleting it if it has expired.
// s.mu must be held.
func (s *VerificationStore) live(key string) (model.VerificationRecord, bool) {
	rec, ok := s.records[key]
	if !ok {
		return model.VerificationRecord{}, false
	}
	if rec.Expired(s.now()) {
		delete(s.records, key)
		return model.VerificationRecord{}, false
	}
	return rec, true
}
