// Package memory provides a process-local user directory for development and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "authservice/backend/internal/domain/auth"
)

// UserRepository keeps users in a map keyed by lower-cased email.
type UserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*domain.User
}

// NewUserRepository constructs an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{byEmail: make(map[string]*domain.User)}
}

var _ domain.UserRepository = (*UserRepository)(nil)

// FindByEmail returns a copy of the stored user.
func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byEmail[key(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

// Save inserts the user, assigning an ID when missing. The uniqueness check
// and the insert happen under one lock.
func (r *UserRepository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(user.Email)
	if _, exists := r.byEmail[k]; exists {
		return nil, domain.ErrDuplicateIdentity
	}
	clone := *user
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	r.byEmail[k] = &clone
	out := clone
	return &out, nil
}

// UpdatePassword replaces the stored hash for the user with the given id.
func (r *UserRepository) UpdatePassword(_ context.Context, id, passwordHash string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			u.PasswordHash = passwordHash
			u.UpdatedAt = updatedAt
			return nil
		}
	}
	return domain.ErrUserNotFound
}

// SetDisabled flips the account-state flag.
func (r *UserRepository) SetDisabled(_ context.Context, email string, disabled bool, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[key(email)]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Disabled = disabled
	u.UpdatedAt = updatedAt
	return nil
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
