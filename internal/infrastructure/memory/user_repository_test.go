package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "authservice/backend/internal/domain/auth"
)

func TestSaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	saved, err := repo.Save(ctx, &domain.User{Email: "a@x.com", FullName: "A", PasswordHash: "h"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	got, err := repo.FindByEmail(ctx, " A@X.com ")
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	got.FullName = "mutated"
	again, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "A", again.FullName, "callers receive copies")
}

func TestFindMissing(t *testing.T) {
	_, err := NewUserRepository().FindByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSaveDuplicateKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	_, err := repo.Save(ctx, &domain.User{Email: "a@x.com", FullName: "First", PasswordHash: "h1"})
	require.NoError(t, err)

	_, err = repo.Save(ctx, &domain.User{Email: "a@x.com", FullName: "Second", PasswordHash: "h2"})
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	got, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "First", got.FullName)
	assert.Equal(t, "h1", got.PasswordHash)
}

func TestSaveConcurrentUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Save(ctx, &domain.User{Email: "race@x.com"}); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), created.Load())
}

func TestUpdatePasswordAndSetDisabled(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	saved, err := repo.Save(ctx, &domain.User{Email: "a@x.com", PasswordHash: "old"})
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdatePassword(ctx, saved.ID, "new", now))
	require.NoError(t, repo.SetDisabled(ctx, "a@x.com", true, now))

	got, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)
	assert.True(t, got.Disabled)
	assert.Equal(t, now, got.UpdatedAt)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "missing", "x", now), domain.ErrUserNotFound)
	assert.ErrorIs(t, repo.SetDisabled(ctx, "missing@x.com", true, now), domain.ErrUserNotFound)
}
