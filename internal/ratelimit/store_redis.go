package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"hrportal/pkg/requestcontext"
)

// RedisLockoutStore shares lockout state across replicas. Keys expire on
// their own, so there is no cleanup job.
type RedisLockoutStore struct {
	client redis.Cmdable
}

func NewRedisLockoutStore(client redis.Cmdable) *RedisLockoutStore {
	return &RedisLockoutStore{client: client}
}

func failureKey(key string) string { return "lockout:failures:" + key }
func lockKey(key string) string    { return "lockout:locked:" + key }

func (s *RedisLockoutStore) IncrFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	k := failureKey(key)
	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, err
		}
	}
	return int(count), nil
}

func (s *RedisLockoutStore) Lock(ctx context.Context, key string, until time.Time) error {
	ttl := until.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, lockKey(key), until.UTC().Format(time.RFC3339Nano), ttl).Err()
}

func (s *RedisLockoutStore) LockedUntil(ctx context.Context, key string) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, lockKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	until, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return until, true, nil
}

func (s *RedisLockoutStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, failureKey(key), lockKey(key)).Err()
}
