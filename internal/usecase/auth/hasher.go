package auth

import "context"

// PasswordHasher turns plaintext passwords into stored hashes and back-checks them.
//
// Verify returns (false, nil) on mismatch and an error wrapping
// domain.ErrMalformedHash when the stored value cannot be parsed.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
	NeedsRehash(hash string) bool
}
