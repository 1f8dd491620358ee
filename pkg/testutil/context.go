package testutil

import (
	"net/http"
	"time"

	id "hrportal/pkg/domain"
	"hrportal/pkg/requestcontext"
)

// AsUser stamps an authenticated identity onto the request, simulating what
// the auth middleware does after verifying a bearer token.
func AsUser(req *http.Request, userID id.UserID, email string, role id.Role) *http.Request {
	ctx := requestcontext.WithIdentity(req.Context(), requestcontext.AuthIdentity{
		SubjectID: userID,
		Email:     email,
		Role:      role,
	})
	return req.WithContext(ctx)
}

// AtTime pins the request clock, simulating the request time middleware.
func AtTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
