package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-med-predict/internal/model"
	"go-med-predict/internal/repository"
)

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()

	previous := readPassword
	t.Cleanup(func() { readPassword = previous })

	readPassword = func() ([]byte, error) {
		require.NotEmpty(t, answers, "unexpected password prompt")
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}
}

func TestRun_CreateAndList(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	ctx := context.Background()
	var out bytes.Buffer

	stubPasswords(t, "s3cret", "s3cret")
	require.NoError(t, run(ctx, []string{"create", "-username", "dana", "-role", "admin", "-dob", "07-08-1975"}, repo, bcrypt.MinCost, &out))
	assert.Contains(t, out.String(), "created dana (admin)")

	user, err := repo.FindByUsername(ctx, "dana")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))

	out.Reset()
	require.NoError(t, run(ctx, []string{"list"}, repo, bcrypt.MinCost, &out))
	assert.Contains(t, out.String(), "USERNAME")
	assert.Contains(t, out.String(), "dana")
	assert.Contains(t, out.String(), "1975-08-07")
}

func TestRun_ResetPassword(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	ctx := context.Background()
	var out bytes.Buffer

	stubPasswords(t, "first", "first", "second", "second")
	require.NoError(t, run(ctx, []string{"create", "-username", "erin", "-dob", "01-01-2000"}, repo, bcrypt.MinCost, &out))
	require.NoError(t, run(ctx, []string{"reset-password", "-username", "erin"}, repo, bcrypt.MinCost, &out))

	user, err := repo.FindByUsername(ctx, "erin")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("second")))
}

func TestRun_Errors(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	ctx := context.Background()
	var out bytes.Buffer

	assert.Error(t, run(ctx, nil, repo, bcrypt.MinCost, &out))
	assert.Error(t, run(ctx, []string{"delete"}, repo, bcrypt.MinCost, &out))

	stubPasswords(t, "one", "two")
	err := run(ctx, []string{"create", "-username", "frank", "-dob", "01-01-2000"}, repo, bcrypt.MinCost, &out)
	assert.EqualError(t, err, "passwords do not match")

	stubPasswords(t, "pw", "pw")
	err = run(ctx, []string{"reset-password", "-username", "nobody"}, repo, bcrypt.MinCost, &out)
	assert.Error(t, err)
}
