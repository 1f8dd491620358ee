package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"hrportal/internal/contacts/models"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
	txcontext "hrportal/pkg/platform/tx"
)

// Postgres persists emergency contacts.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const contactColumns = `id, user_id, name, relationship, phone, email, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, c *models.EmergencyContact) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO emergency_contacts (`+contactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(c.ID), uuid.UUID(c.UserID), c.Name, c.Relationship, c.Phone, c.Email,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create emergency contact: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, contactID id.ContactID) (*models.EmergencyContact, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM emergency_contacts WHERE id = $1`,
		uuid.UUID(contactID),
	)
	return scanContact(row)
}

func (s *Postgres) ListByUser(ctx context.Context, userID id.UserID) ([]*models.EmergencyContact, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+contactColumns+` FROM emergency_contacts WHERE user_id = $1 ORDER BY created_at, id`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list emergency contacts: %w", err)
	}
	defer rows.Close()

	var out []*models.EmergencyContact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, c *models.EmergencyContact) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE emergency_contacts
		SET name = $2, relationship = $3, phone = $4, email = $5, updated_at = $6
		WHERE id = $1`,
		uuid.UUID(c.ID), c.Name, c.Relationship, c.Phone, c.Email, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update emergency contact: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, contactID id.ContactID) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM emergency_contacts WHERE id = $1`, uuid.UUID(contactID))
	if err != nil {
		return fmt.Errorf("delete emergency contact: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(row scanner) (*models.EmergencyContact, error) {
	var (
		c         models.EmergencyContact
		contactID uuid.UUID
		userID    uuid.UUID
	)
	err := row.Scan(&contactID, &userID, &c.Name, &c.Relationship, &c.Phone, &c.Email,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan emergency contact: %w", err)
	}
	c.ID = id.ContactID(contactID)
	c.UserID = id.UserID(userID)
	return &c, nil
}
