package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisLockoutStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLockoutStore(client), mr
}

func TestRedisLockoutStore_IncrFailure(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := store.IncrFailure(ctx, "ana@example.com", time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestRedisLockoutStore_WindowExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	_, err := store.IncrFailure(ctx, "ana@example.com", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	got, err := store.IncrFailure(ctx, "ana@example.com", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, got, "counter should restart after the window expires")
}

func TestRedisLockoutStore_LockRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	until := time.Now().Add(15 * time.Minute)
	require.NoError(t, store.Lock(ctx, "ana@example.com", until))

	got, locked, err := store.LockedUntil(ctx, "ana@example.com")
	require.NoError(t, err)
	require.True(t, locked)
	require.WithinDuration(t, until, got, time.Second)

	mr.FastForward(16 * time.Minute)
	_, locked, err = store.LockedUntil(ctx, "ana@example.com")
	require.NoError(t, err)
	require.False(t, locked, "lock key should expire on its own")
}

func TestRedisLockoutStore_Clear(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	_, err := store.IncrFailure(ctx, "ana@example.com", time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Lock(ctx, "ana@example.com", time.Now().Add(time.Minute)))

	require.NoError(t, store.Clear(ctx, "ana@example.com"))

	_, locked, err := store.LockedUntil(ctx, "ana@example.com")
	require.NoError(t, err)
	require.False(t, locked)
}
