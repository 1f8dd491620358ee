package ratelimit

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrportal/internal/platform/config"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/requestcontext"
)

func testLockout(store LockoutStore) *Lockout {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return NewLockout(store, config.LockoutConfig{MaxFailures: 3, LockDuration: 15 * time.Minute}, logger)
}

func TestLockout_LocksAfterThreshold(t *testing.T) {
	l := testLockout(NewMemoryLockoutStore())
	ctx := requestcontext.WithTime(context.Background(), time.Now())

	require.NoError(t, l.Check(ctx, "ana@example.com"))

	for i := 0; i < 3; i++ {
		require.NoError(t, l.RecordFailure(ctx, "ana@example.com"))
	}

	err := l.Check(ctx, "ana@example.com")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestLockout_ExpiresNaturally(t *testing.T) {
	l := testLockout(NewMemoryLockoutStore())
	start := time.Now()
	ctx := requestcontext.WithTime(context.Background(), start)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.RecordFailure(ctx, "ana@example.com"))
	}
	require.Error(t, l.Check(ctx, "ana@example.com"))

	later := requestcontext.WithTime(context.Background(), start.Add(16*time.Minute))
	require.NoError(t, l.Check(later, "ana@example.com"))
}

func TestLockout_ClearResets(t *testing.T) {
	l := testLockout(NewMemoryLockoutStore())
	ctx := requestcontext.WithTime(context.Background(), time.Now())

	for i := 0; i < 3; i++ {
		require.NoError(t, l.RecordFailure(ctx, "ana@example.com"))
	}
	require.NoError(t, l.Clear(ctx, "ana@example.com"))
	require.NoError(t, l.Check(ctx, "ana@example.com"))
}

func TestLockout_KeysAreIndependent(t *testing.T) {
	l := testLockout(NewMemoryLockoutStore())
	ctx := requestcontext.WithTime(context.Background(), time.Now())

	for i := 0; i < 3; i++ {
		require.NoError(t, l.RecordFailure(ctx, "ana@example.com"))
	}
	require.Error(t, l.Check(ctx, "ana@example.com"))
	require.NoError(t, l.Check(ctx, "luis@example.com"))
}
