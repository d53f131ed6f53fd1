package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/shopwise-auth/internal/model"
)

var _ model.UserStore = (*UserStore)(nil)

// UserStore keeps users in memory with unique email and phone indexes.
type UserStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]model.User
	byEmail map[string]uuid.UUID
	byPhone map[string]uuid.UUID
	now     func() time.Time
}

// NewUserStore creates an empty store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[uuid.UUID]model.User),
		byEmail: make(map[string]uuid.UUID),
		byPhone: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

// FindByIdentity looks a user up by email or phone.
func (s *UserStore) FindByIdentity(_ context.Context, identity model.Identity) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := s.byEmail
	if identity.Kind == model.IdentityPhone {
		index = s.byPhone
	}
	id, ok := index[identity.Key]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return s.users[id], nil
}

// GetByID returns the user with id.
func (s *UserStore) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return user, nil
}

// Create stores user. It fails with model.ErrUniqueViolation if the id,
// email or phone is already taken.
func (s *UserStore) Create(_ context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return model.User{}, model.ErrUniqueViolation
	}
	if _, ok := s.byEmail[user.Email]; ok && user.Email != "" {
		return model.User{}, model.ErrUniqueViolation
	}
	if _, ok := s.byPhone[user.Phone]; ok && user.Phone != "" {
		return model.User{}, model.ErrUniqueViolation
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	s.users[user.ID] = user
	if user.Email != "" {
		s.byEmail[user.Email] = user.ID
	}
	if user.Phone != "" {
		s.byPhone[user.Phone] = user.ID
	}
	return user, nil
}

// Update applies patch to the user with id. A phone number held by another
// user fails with model.ErrUniqueViolation.
func (s *UserStore) Update(_ context.Context, id uuid.UUID, patch model.UserPatch) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}

	if patch.Phone != nil && *patch.Phone != user.Phone {
		phone := *patch.Phone
		if owner, ok := s.byPhone[phone]; ok && phone != "" && owner != id {
			return model.User{}, model.ErrUniqueViolation
		}
		delete(s.byPhone, user.Phone)
		if phone != "" {
			s.byPhone[phone] = id
		}
		user.Phone = phone
	}
	if patch.PhoneVerified != nil {
		user.PhoneVerified = *patch.PhoneVerified
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Gender != nil {
		user.Gender = *patch.Gender
	}
	if patch.DateOfBirth != nil {
		dob := *patch.DateOfBirth
		user.DateOfBirth = &dob
	}
	if patch.Status != nil {
		user.Status = *patch.Status
	}
	if patch.ProfileImage != nil {
		user.ProfileImage = *patch.ProfileImage
	}
	if patch.LastLoginAt != nil {
		at := *patch.LastLoginAt
		user.LastLoginAt = &at
	}
	user.UpdatedAt = s.now()

	s.users[id] = user
	return user, nil
}

// Count returns the number of stored users.
func (s *UserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
