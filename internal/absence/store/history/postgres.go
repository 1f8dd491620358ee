package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"hrportal/internal/absence/models"
	id "hrportal/pkg/domain"
	txcontext "hrportal/pkg/platform/tx"
)

// Postgres persists ledger entries. Writes join the transaction carried in
// context so an entry commits atomically with its status transition.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Append(ctx context.Context, e *models.ApprovalHistoryEntry) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO approval_history (id, request_id, approver_id, approval_stage, action, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(e.ID), uuid.UUID(e.RequestID), uuid.UUID(e.ApproverID),
		e.ApprovalStage, e.Action.String(), e.Comments, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append approval history: %w", err)
	}
	return nil
}

func (s *Postgres) ListByRequest(ctx context.Context, requestID id.RequestID) ([]*models.ApprovalHistoryEntry, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, request_id, approver_id, approval_stage, action, comments, created_at
		FROM approval_history WHERE request_id = $1 ORDER BY created_at, id`,
		uuid.UUID(requestID),
	)
	if err != nil {
		return nil, fmt.Errorf("list approval history: %w", err)
	}
	defer rows.Close()

	var out []*models.ApprovalHistoryEntry
	for rows.Next() {
		var (
			e         models.ApprovalHistoryEntry
			entryID   uuid.UUID
			reqID     uuid.UUID
			approver  uuid.UUID
			action    string
		)
		if err := rows.Scan(&entryID, &reqID, &approver, &e.ApprovalStage, &action, &e.Comments, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan approval history: %w", err)
		}
		e.ID = id.EntryID(entryID)
		e.RequestID = id.RequestID(reqID)
		e.ApproverID = id.UserID(approver)
		e.Action = models.Action(action)
		out = append(out, &e)
	}
	return out, rows.Err()
}
