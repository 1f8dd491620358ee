package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/httputil"
	"hrportal/pkg/requestcontext"
	"hrportal/pkg/testutil"
)

type staticVerifier struct {
	ident requestcontext.AuthIdentity
	err   error
}

func (v staticVerifier) Verify(string) (requestcontext.AuthIdentity, error) {
	return v.ident, v.err
}

type pingRegistrar struct{}

func (pingRegistrar) RegisterProtected(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, req *http.Request) {
		ident, _ := requestcontext.Identity(req.Context())
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"subject": ident.SubjectID.String()})
	})
}

func newTestRouter(verifier staticVerifier) chi.Router {
	return NewRouter(Config{
		Logger:    slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		Verifier:  verifier,
		Protected: []ProtectedRegistrar{pingRegistrar{}},
		Health: map[string]HealthCheck{
			"store": func(context.Context) error { return nil },
		},
	})
}

func TestGuardStatusCodes(t *testing.T) {
	subject := id.UserID(uuid.New())
	router := newTestRouter(staticVerifier{ident: requestcontext.AuthIdentity{
		SubjectID: subject, Email: "eli@example.com", Role: id.RoleEmployee,
	}})

	// No Authorization header at all.
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/ping"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	// A bearer token that fails verification.
	badRouter := newTestRouter(staticVerifier{err: errors.New("expired")})
	req := testutil.NewRequest(t, http.MethodGet, "/ping")
	req.Header.Set("Authorization", "Bearer not-valid")
	rr = testutil.DoRequest(badRouter, req)
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

	// A verified token reaches the handler with the identity installed.
	req = testutil.NewRequest(t, http.MethodGet, "/ping")
	req.Header.Set("Authorization", "Bearer good")
	rr = testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.UnmarshalResponse[map[string]string](t, rr)
	require.Equal(t, subject.String(), (*body)["subject"])
}

func TestOperationalEndpointsStayOpen(t *testing.T) {
	router := newTestRouter(staticVerifier{err: errors.New("never called")})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.UnmarshalResponse[map[string]string](t, rr)
	require.Equal(t, "ok", (*body)["status"])
	require.Equal(t, "ok", (*body)["store"])

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestDegradedHealth(t *testing.T) {
	router := NewRouter(Config{
		Logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		Verifier: staticVerifier{},
		Health: map[string]HealthCheck{
			"database": func(context.Context) error { return errors.New("connection refused") },
		},
	})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	body := testutil.UnmarshalResponse[map[string]string](t, rr)
	require.Equal(t, "degraded", (*body)["status"])
}

func TestRequestIDPropagation(t *testing.T) {
	router := newTestRouter(staticVerifier{})

	req := testutil.NewRequest(t, http.MethodGet, "/healthz")
	req.Header.Set("X-Request-Id", "upstream-id")
	rr := testutil.DoRequest(router, req)
	require.Equal(t, "upstream-id", rr.Header().Get("X-Request-Id"))

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	require.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}
