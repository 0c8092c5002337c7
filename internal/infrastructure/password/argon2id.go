package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"

	domain "authservice/backend/internal/domain/auth"
)

// Argon2Params tunes the argon2id work factor.
type Argon2Params struct {
	Time      uint32 // iterations
	MemoryKiB uint32
	Threads   uint8
	SaltLen   uint32
	KeyLen    uint32
}

// DefaultArgon2Params returns the OWASP-recommended argon2id parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:      1,
		MemoryKiB: 64 * 1024,
		Threads:   4,
		SaltLen:   16,
		KeyLen:    32,
	}
}

// Argon2id hashes passwords with argon2id and encodes them in PHC string format.
type Argon2id struct {
	params Argon2Params
}

// NewArgon2id constructs an argon2id hasher.
func NewArgon2id(p Argon2Params) (*Argon2id, error) {
	if p.Time == 0 || p.MemoryKiB == 0 || p.Threads == 0 {
		return nil, fmt.Errorf("argon2id time, memory and threads must be positive")
	}
	if p.SaltLen < 8 || p.KeyLen < 16 {
		return nil, fmt.Errorf("argon2id salt must be >= 8 bytes and key >= 16 bytes")
	}
	return &Argon2id{params: p}, nil
}

// Hash produces an argon2id hash of the password.
func (h *Argon2id) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", oops.Code("PASSWORD_EMPTY").Wrap(domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("PASSWORD_SALT_FAILED").Wrap(err)
	}
	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLen)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks if the password matches the hash.
func (h *Argon2id) Verify(ctx context.Context, password, encoded string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, salt, want, err := decodeArgon2id(encoded)
	if err != nil {
		return false, oops.Code("PASSWORD_HASH_MALFORMED").
			With("algorithm", "argon2id").
			With("cause", err.Error()).
			Wrap(domain.ErrMalformedHash)
	}

	got := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// NeedsRehash is true for non-argon2id hashes and argon2id hashes with other parameters.
func (h *Argon2id) NeedsRehash(encoded string) bool {
	p, salt, key, err := decodeArgon2id(encoded)
	if err != nil {
		return true
	}
	return p.Time != h.params.Time ||
		p.MemoryKiB != h.params.MemoryKiB ||
		p.Threads != h.params.Threads ||
		uint32(len(salt)) != h.params.SaltLen ||
		uint32(len(key)) != h.params.KeyLen
}

func decodeArgon2id(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, fmt.Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, err
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Time, &threads); err != nil {
		return p, nil, nil, err
	}
	if threads == 0 || threads > 255 {
		return p, nil, nil, fmt.Errorf("threads value %d out of range", threads)
	}
	if p.Time == 0 || p.MemoryKiB == 0 {
		return p, nil, nil, fmt.Errorf("time and memory must be positive")
	}
	p.Threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, err
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, err
	}
	if len(salt) == 0 || len(key) == 0 || len(key) > 1<<10 {
		return p, nil, nil, fmt.Errorf("invalid salt or key length")
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))
	return p, salt, key, nil
}
