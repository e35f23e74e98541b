//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"go-med-predict/internal/database"
	"go-med-predict/internal/model"
)

func setupPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			Env:          map[string]string{"POSTGRES_PASSWORD": "password", "POSTGRES_DB": "medpredict", "POSTGRES_USER": "postgres"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:password@%s:%d/medpredict?sslmode=disable", host, port.Int())
	db, err := database.New(ctx, dsn, 5, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	return db.SQL
}

func TestUserRepository_Postgres(t *testing.T) {
	db := setupPostgres(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := sampleUser()
	_, err := repo.Create(ctx, u)
	require.NoError(t, err)

	dup := sampleUser()
	dup.ID = "5d2b1b1e-3e9e-4a8a-bf66-7a5a1d8c0f22"
	_, err = repo.Create(ctx, dup)
	assert.ErrorIs(t, err, model.ErrUserAlreadyExists)

	var count int
	require.NoError(t, db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 1, count, "failed insert leaves no row")

	got, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, u.DateOfBirth.Equal(got.DateOfBirth))

	u.PasswordHash = "rotated"
	u.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.UpdatePassword(ctx, u))

	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.PasswordHash)
}
