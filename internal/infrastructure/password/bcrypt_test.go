package password

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	domain "authservice/backend/internal/domain/auth"
)

func newTestBcrypt(t *testing.T) *Bcrypt {
	t.Helper()
	h, err := NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestNewBcrypt_RejectsCostOutOfRange(t *testing.T) {
	_, err := NewBcrypt(bcrypt.MinCost - 1)
	assert.Error(t, err)
	_, err = NewBcrypt(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}

func TestBcrypt_HashAndVerify(t *testing.T) {
	ctx := context.Background()
	h := newTestBcrypt(t)

	hash, err := h.Hash(ctx, "pw123")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", hash)
	assert.NotContains(t, hash, "pw123")

	ok, err := h.Verify(ctx, "pw123", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(ctx, "pw124", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcrypt_SaltedHashesDiffer(t *testing.T) {
	ctx := context.Background()
	h := newTestBcrypt(t)

	first, err := h.Hash(ctx, "same-password")
	require.NoError(t, err)
	second, err := h.Hash(ctx, "same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, second, len(first))
	for _, hash := range []string{first, second} {
		ok, err := h.Verify(ctx, "same-password", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestBcrypt_RejectsEmptyAndTooLongPasswords(t *testing.T) {
	ctx := context.Background()
	h := newTestBcrypt(t)

	_, err := h.Hash(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = h.Hash(ctx, strings.Repeat("x", 73))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBcrypt_MalformedHash(t *testing.T) {
	h := newTestBcrypt(t)

	for _, bad := range []string{"", "invalid-hash-format", "$2a$99$abcdefghijklmnopqrstuuabcdefghijklmnopqrstuvwxyz12345"} {
		ok, err := h.Verify(context.Background(), "pw123", bad)
		assert.False(t, ok, bad)
		assert.ErrorIs(t, err, domain.ErrMalformedHash, bad)
	}
}

func TestBcrypt_NeedsRehash(t *testing.T) {
	ctx := context.Background()
	h := newTestBcrypt(t)
	hash, err := h.Hash(ctx, "pw123")
	require.NoError(t, err)

	assert.False(t, h.NeedsRehash(hash))

	stronger, err := NewBcrypt(bcrypt.MinCost + 1)
	require.NoError(t, err)
	assert.True(t, stronger.NeedsRehash(hash))
	assert.True(t, h.NeedsRehash("$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5a2V5aw"))
}

func TestBcrypt_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestBcrypt(t).Hash(ctx, "pw123")
	assert.ErrorIs(t, err, context.Canceled)
}
