package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store with a fixed window counter shared across
// replicas. INCR and the expiry run in one pipeline, so the first request in
// a window always sets the TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "pulsefit:ratelimit:"}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	windowKey := fmt.Sprintf("%s%s:%d", s.prefix, key, time.Now().UnixNano()/int64(window))

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("ratelimit pipeline: %w", err)
	}

	count := int(incr.Val())
	resetAt := time.Now().Truncate(window).Add(window)
	if count > limit {
		return &Result{Allowed: false, Remaining: 0, ResetAt: resetAt, Limit: limit}, nil
	}
	return &Result{Allowed: true, Remaining: limit - count, ResetAt: resetAt, Limit: limit}, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	iter := s.client.Scan(ctx, 0, s.prefix+key+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("ratelimit reset: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("ratelimit reset scan: %w", err)
	}
	return nil
}
