package password

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Dispatch hashes with the configured algorithm but verifies any supported
// format, picked by the hash prefix. Stored hashes from a previously
// configured algorithm keep working and are reported by NeedsRehash.
type Dispatch struct {
	primary Hasher
	bcrypt  *Bcrypt
	argon2  *Argon2id
}

// NewDispatch wraps primary. Foreign bcrypt and argon2id hashes are verified
// with the parameters encoded in the hash itself.
func NewDispatch(primary Hasher) (*Dispatch, error) {
	d := &Dispatch{primary: primary}
	switch p := primary.(type) {
	case *Bcrypt:
		d.bcrypt = p
	case *Argon2id:
		d.argon2 = p
	}
	if d.bcrypt == nil {
		b, err := NewBcrypt(bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		d.bcrypt = b
	}
	if d.argon2 == nil {
		a, err := NewArgon2id(DefaultArgon2Params())
		if err != nil {
			return nil, err
		}
		d.argon2 = a
	}
	return d, nil
}

// Hash uses the configured algorithm only.
func (d *Dispatch) Hash(ctx context.Context, password string) (string, error) {
	return d.primary.Hash(ctx, password)
}

// Verify routes to the hasher matching the stored format. Unknown formats go
// to the configured hasher, which reports them as malformed.
func (d *Dispatch) Verify(ctx context.Context, password, hash string) (bool, error) {
	switch {
	case isBcryptHash(hash):
		return d.bcrypt.Verify(ctx, password, hash)
	case strings.HasPrefix(hash, "$argon2id$"):
		return d.argon2.Verify(ctx, password, hash)
	default:
		return d.primary.Verify(ctx, password, hash)
	}
}

// NeedsRehash defers to the configured hasher, which flags foreign formats.
func (d *Dispatch) NeedsRehash(hash string) bool {
	return d.primary.NeedsRehash(hash)
}

func isBcryptHash(hash string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(hash, prefix) {
			return true
		}
	}
	return false
}
