package ratelimit

import (
	"context"
	"time"

	pkgredis "github.com/prairiemarket/storefront-backend/pkg/redis"
)

type redisCounter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	RateLimitKey(scope, identity string) string
}

// RedisStore keeps fixed-window counters in Redis so limits hold across
// instances. Redis expiry replaces the janitor sweep.
type RedisStore struct {
	client redisCounter
	now    func() time.Time
}

func NewRedisStore(client *pkgredis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Hit(ctx context.Context, scope Scope, identity string, window time.Duration) (int64, time.Time, error) {
	key := s.client.RateLimitKey(string(scope), identity)
	count, err := s.client.IncrWithTTL(ctx, key, window)
	if err != nil {
		return 0, time.Time{}, err
	}
	remaining, err := s.client.TTL(ctx, key)
	if err != nil {
		return 0, time.Time{}, err
	}
	if remaining <= 0 {
		remaining = window
	}
	return count, s.now().Add(remaining), nil
}
