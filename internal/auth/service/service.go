package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	authmetrics "hrportal/internal/auth/metrics"
	"hrportal/internal/auth/models"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/sentinel"
	"hrportal/pkg/requestcontext"
	"hrportal/pkg/secrets"
)

// UserStore is the persistence seam for user records.
type UserStore interface {
	CreateIfEmailAvailable(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenIssuer signs identity tokens. Implemented by internal/jwt_token.
type TokenIssuer interface {
	Issue(ident requestcontext.AuthIdentity, now time.Time) (string, error)
	TTL() time.Duration
}

// LoginThrottle guards against credential stuffing. Nil disables throttling.
type LoginThrottle interface {
	Check(ctx context.Context, identifier string) error
	RecordFailure(ctx context.Context, identifier string) error
	Clear(ctx context.Context, identifier string) error
}

// TokenResult is the login response payload.
type TokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Service orchestrates signup and stateless login.
type Service struct {
	users    UserStore
	tokens   TokenIssuer
	throttle LoginThrottle
	metrics  *authmetrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithThrottle(t LoginThrottle) Option {
	return func(s *Service) { s.throttle = t }
}

func WithMetrics(m *authmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(users UserStore, tokens TokenIssuer, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// errInvalidCredentials is returned for every login failure path so callers
// cannot tell an unknown email from a wrong password or a locked account.
var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")

// Login verifies credentials and issues a signed stateless token.
func (s *Service) Login(ctx context.Context, email, password string) (TokenResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return TokenResult{}, errInvalidCredentials
	}

	if s.throttle != nil {
		if err := s.throttle.Check(ctx, email); err != nil {
			s.metrics.IncrementLoginFailed()
			return TokenResult{}, err
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordFailure(ctx, email)
			return TokenResult{}, errInvalidCredentials
		}
		return TokenResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := secrets.Verify(password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.recordFailure(ctx, email)
			return TokenResult{}, errInvalidCredentials
		}
		return TokenResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}

	if s.throttle != nil {
		if err := s.throttle.Clear(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "failed to clear login throttle", "error", err)
		}
	}

	token, err := s.tokens.Issue(requestcontext.AuthIdentity{
		SubjectID: user.ID,
		Email:     user.Email,
		Role:      user.Role,
	}, requestcontext.Now(ctx))
	if err != nil {
		return TokenResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}

	s.metrics.IncrementLoginSucceeded()
	return TokenResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
	}, nil
}

func (s *Service) recordFailure(ctx context.Context, email string) {
	s.metrics.IncrementLoginFailed()
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure", "error", err)
	}
}

// CreateUserInput carries the signup payload.
type CreateUserInput struct {
	Name         string
	Email        string
	Password     string
	Role         id.Role
	SupervisorID *id.UserID
}

// CreateUser hashes the password and stores the user. Duplicate email is a
// conflict.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if in.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if in.Role == "" {
		in.Role = id.RoleEmployee
	}

	hash, err := secrets.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := models.NewUser(id.UserID(uuid.New()), in.Name, in.Email, hash, in.Role, in.SupervisorID, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid user")
	}

	if err := s.users.CreateIfEmailAvailable(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.metrics.IncrementUserCreated()
	return user, nil
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}
