package password

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "authservice/backend/internal/domain/auth"
)

func testArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, MemoryKiB: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}
}

func newTestArgon2id(t *testing.T) *Argon2id {
	t.Helper()
	h, err := NewArgon2id(testArgon2Params())
	require.NoError(t, err)
	return h
}

func TestNewArgon2id_ValidatesParams(t *testing.T) {
	p := testArgon2Params()
	p.Time = 0
	_, err := NewArgon2id(p)
	assert.Error(t, err)

	p = testArgon2Params()
	p.KeyLen = 4
	_, err = NewArgon2id(p)
	assert.Error(t, err)

	_, err = NewArgon2id(DefaultArgon2Params())
	assert.NoError(t, err)
}

func TestArgon2id_HashAndVerify(t *testing.T) {
	ctx := context.Background()
	h := newTestArgon2id(t)

	hash, err := h.Hash(ctx, "Password123!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := h.Verify(ctx, "Password123!", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(ctx, "Password124!", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2id_SaltedHashesDiffer(t *testing.T) {
	ctx := context.Background()
	h := newTestArgon2id(t)

	first, err := h.Hash(ctx, "pw")
	require.NoError(t, err)
	second, err := h.Hash(ctx, "pw")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, second, len(first))
}

func TestArgon2id_MalformedHash(t *testing.T) {
	h := newTestArgon2id(t)
	cases := []string{
		"",
		"invalid-hash-format",
		"$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=1024,t=1,p=0$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5a2V5a2V5a2V5",
	}
	for _, bad := range cases {
		ok, err := h.Verify(context.Background(), "pw", bad)
		assert.False(t, ok, bad)
		assert.ErrorIs(t, err, domain.ErrMalformedHash, bad)
	}
}

func TestArgon2id_NeedsRehash(t *testing.T) {
	ctx := context.Background()
	h := newTestArgon2id(t)
	hash, err := h.Hash(ctx, "pw")
	require.NoError(t, err)
	assert.False(t, h.NeedsRehash(hash))

	p := testArgon2Params()
	p.Time = 2
	stronger, err := NewArgon2id(p)
	require.NoError(t, err)
	assert.True(t, stronger.NeedsRehash(hash))

	bc := newTestBcrypt(t)
	bcHash, err := bc.Hash(ctx, "pw")
	require.NoError(t, err)
	assert.True(t, h.NeedsRehash(bcHash))
}
