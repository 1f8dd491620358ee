package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"hrportal/pkg/platform/httputil"
	"hrportal/pkg/requestcontext"

	dErrors "hrportal/pkg/domain-errors"
)

// TokenVerifier validates a bearer token and returns the identity it carries.
type TokenVerifier interface {
	Verify(tokenString string) (requestcontext.AuthIdentity, error)
}

// RequireAuth authenticates every request on the wrapped routes. A missing
// Authorization header is 401; a present but unverifiable token is 403. The
// middleware only establishes identity - ownership and role checks happen in
// the services.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthenticated request - missing bearer token",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			ident, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "forbidden request - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithIdentity(ctx, ident)))
		})
	}
}
