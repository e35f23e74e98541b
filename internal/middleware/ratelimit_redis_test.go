//go:build integration

package middleware

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisLimitStore(t *testing.T) {
	ctx := context.Background()

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.0-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisC.Terminate(ctx) })

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	store := NewRedisLimitStore(rdb, "test:")
	fixed := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return fixed }

	for i := 0; i < 3; i++ {
		allowed, err := store.Allow(ctx, "auth:10.0.0.1", 3)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	allowed, err := store.Allow(ctx, "auth:10.0.0.1", 3)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = store.Allow(ctx, "auth:10.0.0.2", 3)
	require.NoError(t, err)
	assert.True(t, allowed)

	store.now = func() time.Time { return fixed.Add(time.Minute) }
	allowed, err = store.Allow(ctx, "auth:10.0.0.1", 3)
	require.NoError(t, err)
	assert.True(t, allowed)

	ttl, err := rdb.TTL(ctx, fmt.Sprintf("test:auth:10.0.0.1:%d", fixed.Unix()/60)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
