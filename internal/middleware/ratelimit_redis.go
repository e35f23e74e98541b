package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisWindow = time.Minute

// RedisLimitStore counts requests in fixed one-minute windows shared by
// every replica pointed at the same Redis.
type RedisLimitStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewRedisLimitStore(client redis.Cmdable, prefix string) *RedisLimitStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisLimitStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisLimitStore) Allow(ctx context.Context, key string, perMinute int) (bool, error) {
	window := s.now().Unix() / int64(redisWindow/time.Second)
	redisKey := fmt.Sprintf("%s%s:%d", s.prefix, key, window)

	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, 2*redisWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}

	return count.Val() <= int64(perMinute), nil
}
