// Package ratelimit throttles failed logins: repeated failures for the same
// email hard-lock further attempts for a fixed period. The check runs before
// credential verification so a locked account costs no bcrypt work.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"hrportal/internal/platform/config"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/requestcontext"
)

// LockoutStore tracks failure counts and lock expiries. Implementations:
// in-memory (single process) and Redis (shared across replicas).
type LockoutStore interface {
	// IncrFailure bumps the failure counter for key, starting a counting
	// window on first failure, and returns the new count.
	IncrFailure(ctx context.Context, key string, window time.Duration) (int, error)
	// Lock marks key as hard-locked until the given time.
	Lock(ctx context.Context, key string, until time.Time) error
	// LockedUntil reports the lock expiry for key, if any.
	LockedUntil(ctx context.Context, key string) (time.Time, bool, error)
	// Clear removes both the counter and any lock for key.
	Clear(ctx context.Context, key string) error
}

// Lockout applies the failure threshold policy over a LockoutStore.
type Lockout struct {
	store  LockoutStore
	cfg    config.LockoutConfig
	logger *slog.Logger
}

func NewLockout(store LockoutStore, cfg config.LockoutConfig, logger *slog.Logger) *Lockout {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = 15 * time.Minute
	}
	return &Lockout{store: store, cfg: cfg, logger: logger}
}

// Check fails with an unauthorized error while the identifier is locked.
// The message matches the bad-credentials one so callers cannot distinguish
// a locked account from a wrong password.
func (l *Lockout) Check(ctx context.Context, identifier string) error {
	until, locked, err := l.store.LockedUntil(ctx, identifier)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read lockout state")
	}
	now := requestcontext.Now(ctx)
	if locked && now.Before(until) {
		l.logger.WarnContext(ctx, "login attempt on locked account",
			"identifier", identifier,
			"locked_until", until,
			"retry_after_seconds", int(until.Sub(now).Seconds()),
		)
		return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return nil
}

// RecordFailure counts a failed login and hard-locks once the threshold is
// reached. Counting uses the lock duration as its window.
func (l *Lockout) RecordFailure(ctx context.Context, identifier string) error {
	count, err := l.store.IncrFailure(ctx, identifier, l.cfg.LockDuration)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}
	if count < l.cfg.MaxFailures {
		return nil
	}
	until := requestcontext.Now(ctx).Add(l.cfg.LockDuration)
	if err := l.store.Lock(ctx, identifier, until); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock account")
	}
	l.logger.WarnContext(ctx, "login lockout triggered",
		"identifier", identifier,
		"failures", count,
		"locked_until", until,
	)
	return nil
}

// Clear resets state after a successful login.
func (l *Lockout) Clear(ctx context.Context, identifier string) error {
	return l.store.Clear(ctx, identifier)
}
