package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-med-predict/internal/model"
)

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	u := sampleUser()

	_, err := repo.Create(ctx, u)
	require.NoError(t, err)

	dup := u
	dup.ID = "another-id"
	_, err = repo.Create(ctx, dup)
	assert.ErrorIs(t, err, model.ErrUserAlreadyExists)

	got, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.FindByUsername(ctx, "Alice")
	assert.ErrorIs(t, err, model.ErrUserNotFound, "usernames match exactly")

	u.PasswordHash = "new-hash"
	u.UpdatedAt = u.UpdatedAt.Add(time.Hour)
	require.NoError(t, repo.UpdatePassword(ctx, u))

	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, u.CreatedAt, got.CreatedAt)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, model.User{ID: "nope"}), model.ErrUserNotFound)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
