package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hrportal/internal/notification/models"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
	txcontext "hrportal/pkg/platform/tx"
)

// Postgres persists notifications.
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

const notificationColumns = `id, user_id, request_id, kind, message, is_read, read_at, created_at`

func (s *Postgres) Create(ctx context.Context, n *models.Notification) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(n.ID), uuid.UUID(n.UserID), nullableRequest(n.RequestID),
		n.Kind, n.Message, n.IsRead, n.ReadAt, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *Postgres) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Notification, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1 ORDER BY created_at DESC, id`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Postgres) MarkRead(ctx context.Context, notifID id.NotificationID, ownerID id.UserID, now time.Time) (*models.Notification, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2
		RETURNING `+notificationColumns,
		uuid.UUID(notifID), uuid.UUID(ownerID), now,
	)
	return scanNotification(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(row scanner) (*models.Notification, error) {
	var (
		n         models.Notification
		notifID   uuid.UUID
		userID    uuid.UUID
		requestID uuid.NullUUID
	)
	err := row.Scan(&notifID, &userID, &requestID, &n.Kind, &n.Message, &n.IsRead, &n.ReadAt, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	n.ID = id.NotificationID(notifID)
	n.UserID = id.UserID(userID)
	if requestID.Valid {
		r := id.RequestID(requestID.UUID)
		n.RequestID = &r
	}
	return &n, nil
}

func nullableRequest(r *id.RequestID) any {
	if r == nil {
		return nil
	}
	return uuid.UUID(*r)
}
