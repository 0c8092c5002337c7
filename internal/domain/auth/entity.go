package auth

import (
	"time"
)

// User models the authentication entity persisted in storage.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized returns a copy of the user without the stored credential hash.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

// Credentials captures raw credential input for login.
type Credentials struct {
	Email    string
	Password string
}

// LoginResult pairs an issued token with its lifetime.
type LoginResult struct {
	Token     string
	ExpiresIn int64
	User      *User
}
