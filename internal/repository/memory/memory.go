// Package memory implements repository.UserStore as a mutex-guarded map.
//
// This is the default backend: a process-local map of id → user, lost on
// restart. It is also the backend the handler and end-to-end tests use —
// no files, no network, microsecond operations.
//
// CONCURRENCY:
// net/http serves each request on its own goroutine, so the map must be
// locked. A sync.RWMutex lets concurrent reads proceed while writes are
// exclusive. Every method copies records on the way in and out so callers
// can never mutate store-internal state through a shared pointer.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chang-ngeno/probable-memory-nextjs/internal/apperror"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/model"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/repository"
)

// compile-time check that *Store implements repository.UserStore
var _ repository.UserStore = (*Store)(nil)

// Store is an in-memory user store.
type Store struct {
	mu    sync.RWMutex
	users map[string]*model.User // keyed by id
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{users: make(map[string]*model.User)}
}

// Create inserts a new user, assigning a random uuid id and CreatedAt.
//
// Duplicate emails (case-insensitive) are rejected with ErrConflict — this
// is the only place email uniqueness is enforced.
func (s *Store) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, u := range s.users {
		if strings.ToLower(u.Email) == email {
			return apperror.Conflict("user", u.ID)
		}
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Time{}

	stored := *user
	s.users[user.ID] = &stored
	return nil
}

// GetByID retrieves a user by id.
func (s *Store) GetByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(email)
	for _, u := range s.users {
		if strings.ToLower(u.Email) == lower {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

// FindByIdentifier matches the identifier against email or name,
// case-insensitively. Email wins when both match different users.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(identifier)

	var byName *model.User
	for _, u := range s.users {
		if strings.ToLower(u.Email) == lower {
			copied := *u
			return &copied, nil
		}
		if byName == nil && strings.ToLower(u.Name) == lower {
			byName = u
		}
	}
	if byName != nil {
		copied := *byName
		return &copied, nil
	}
	return nil, apperror.NotFound("user", identifier)
}

// FindByRole returns some user with the given role.
func (s *Store) FindByRole(ctx context.Context, role string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Role == role {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", role)
}

// List returns all users. Order is unspecified (map iteration order).
func (s *Store) List(ctx context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, *u)
	}
	return result, nil
}

// Update saves a full user record keyed by ID and stamps UpdatedAt.
// ID and CreatedAt of the stored row are preserved — ID is immutable.
func (s *Store) Update(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return apperror.NotFound("user", user.ID)
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()

	stored := *user
	s.users[user.ID] = &stored
	return nil
}

// Delete removes a user by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(s.users, id)
	return nil
}
