// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets values; services read them. Keeping this package free of
// net/http lets services depend on identity and time without pulling in
// transport code.
//
// Usage in services (read values):
//
//	ident, ok := requestcontext.Identity(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithIdentity(ctx, ident)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "hrportal/pkg/domain"
)

// AuthIdentity is the ephemeral identity reconstructed from a verified token.
// It is never persisted; every request carries its own copy.
type AuthIdentity struct {
	SubjectID id.UserID
	Email     string
	Role      id.Role
}

type (
	identityKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

var (
	ContextKeyIdentity    = identityKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Identity retrieves the authenticated identity from the context.
// The second return is false when no auth middleware ran.
func Identity(ctx context.Context) (AuthIdentity, bool) {
	ident, ok := ctx.Value(ContextKeyIdentity).(AuthIdentity)
	return ident, ok
}

// WithIdentity injects an authenticated identity into the context.
func WithIdentity(ctx context.Context, ident AuthIdentity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, ident)
}

// RequestID retrieves the correlation ID assigned by middleware, or "".
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return rid
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now returns the request-scoped time when set, falling back to time.Now().
// Handlers pin the time once per request so a transition's timestamps, ledger
// row and notification all agree; tests pin it for determinism.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed time into the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
