package models

import (
	"strings"
	"time"

	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
)

// User is the persistent employee/actor record and the identity anchor for
// login. PasswordHash is a bcrypt hash; the plaintext never leaves the
// signup/login handlers.
type User struct {
	ID           id.UserID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         id.Role   `json:"role"`
	// SupervisorID points at the user who approves this employee's requests.
	// Nil for the top of the reporting chain.
	SupervisorID *id.UserID `json:"supervisor_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewUser validates invariants and constructs a user record.
func NewUser(userID id.UserID, name, email, passwordHash string, role id.Role, supervisorID *id.UserID, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user name cannot be empty")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user email is invalid")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user password hash cannot be empty")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user role is invalid")
	}
	return &User{
		ID:           userID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		SupervisorID: supervisorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
