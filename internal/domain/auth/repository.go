package auth

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for auth users.
//
// FindByEmail reports absence with ErrUserNotFound. Save assigns an ID when the
// user has none and must enforce email uniqueness atomically, returning
// ErrDuplicateIdentity when the email is taken.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	SetDisabled(ctx context.Context, email string, disabled bool, updatedAt time.Time) error
}
