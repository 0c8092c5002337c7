// Package password implements one-way credential hashing.
package password

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	domain "authservice/backend/internal/domain/auth"
)

// Bcrypt hashes passwords with bcrypt at a fixed cost.
type Bcrypt struct {
	cost int
}

// NewBcrypt constructs a bcrypt hasher. The cost must lie within bcrypt's bounds.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

// Hash produces a salted bcrypt hash of the password.
func (h *Bcrypt) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", oops.Code("PASSWORD_EMPTY").Wrap(domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", oops.Code("PASSWORD_TOO_LONG").Wrap(domain.ErrInvalidInput)
		}
		return "", oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches the bcrypt hash.
// A mismatch is (false, nil); an unparseable hash wraps ErrMalformedHash.
func (h *Bcrypt) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("PASSWORD_HASH_MALFORMED").
			With("algorithm", "bcrypt").
			With("cause", err.Error()).
			Wrap(domain.ErrMalformedHash)
	}
}

// NeedsRehash is true for non-bcrypt hashes and bcrypt hashes of another cost.
func (h *Bcrypt) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost != h.cost
}
