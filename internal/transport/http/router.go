// Package http assembles the HTTP surface: middleware, operational
// endpoints, and the module handlers.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hrportal/internal/platform/middleware"
	"hrportal/pkg/platform/httputil"
)

// PublicRegistrar wires routes that do not require a bearer token.
type PublicRegistrar interface {
	RegisterPublic(chi.Router)
}

// ProtectedRegistrar wires routes behind the auth guard.
type ProtectedRegistrar interface {
	RegisterProtected(chi.Router)
}

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Config collects everything the router needs.
type Config struct {
	Logger    *slog.Logger
	Verifier  middleware.TokenVerifier
	Public    []PublicRegistrar
	Protected []ProtectedRegistrar
	Health    map[string]HealthCheck
}

// NewRouter builds the chi router: operational endpoints stay open, business
// routes split into a public group and an authenticated group.
func NewRouter(cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", healthHandler(cfg.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(pub chi.Router) {
		for _, reg := range cfg.Public {
			reg.RegisterPublic(pub)
		}
	})

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(cfg.Verifier, cfg.Logger))
		for _, reg := range cfg.Protected {
			reg.RegisterProtected(protected)
		}
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			} else {
				body[name] = "ok"
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}
