package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/google/uuid"

	"hrportal/internal/auth/models"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
	txcontext "hrportal/pkg/platform/tx"
)

// Postgres persists users in PostgreSQL through database/sql + lib/pq.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) CreateIfEmailAvailable(ctx context.Context, u *models.User) error {
	var supervisorID any
	if u.SupervisorID != nil {
		supervisorID = uuid.UUID(*u.SupervisorID)
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, supervisor_id, created_at, updated_at)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8)`,
		uuid.UUID(u.ID), u.Name, u.Email, u.PasswordHash, u.Role.String(), supervisorID, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, supervisor_id, created_at, updated_at
		FROM users WHERE id = $1`,
		uuid.UUID(userID),
	)
	return scanUser(row)
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, supervisor_id, created_at, updated_at
		FROM users WHERE email = lower($1)`,
		email,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u          models.User
		userID     uuid.UUID
		role       string
		supervisor uuid.NullUUID
	)
	err := row.Scan(&userID, &u.Name, &u.Email, &u.PasswordHash, &role, &supervisor, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = id.UserID(userID)
	u.Role = id.Role(role)
	if supervisor.Valid {
		sid := id.UserID(supervisor.UUID)
		u.SupervisorID = &sid
	}
	return &u, nil
}
