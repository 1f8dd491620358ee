package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"hrportal/internal/absence/models"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
	txcontext "hrportal/pkg/platform/tx"
)

// Postgres persists absence requests. Execute relies on SELECT ... FOR UPDATE
// inside the caller-provided transaction: the second of two racing
// transitions blocks on the row lock, then revalidates against the committed
// state and fails its status check.
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

const requestColumns = `id, employee_id, request_type, start_date, end_date, total_days, reason,
	status, current_approval_stage, approved_by, approved_date, rejected_by, rejected_date,
	rejection_reason, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, r *models.AbsenceRequest) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO absence_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		uuid.UUID(r.ID), uuid.UUID(r.EmployeeID), r.RequestType, r.StartDate, r.EndDate,
		r.TotalDays, r.Reason, r.Status.String(), r.CurrentStage,
		nullableUser(r.ApprovedBy), r.ApprovedDate, nullableUser(r.RejectedBy), r.RejectedDate,
		nullString(r.RejectionReason), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create absence request: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, requestID id.RequestID) (*models.AbsenceRequest, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM absence_requests WHERE id = $1`,
		uuid.UUID(requestID),
	)
	return scanRequest(row)
}

func (s *Postgres) ListByEmployee(ctx context.Context, employeeID id.UserID) ([]*models.AbsenceRequest, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+requestColumns+` FROM absence_requests WHERE employee_id = $1 ORDER BY created_at, id`,
		uuid.UUID(employeeID),
	)
	if err != nil {
		return nil, fmt.Errorf("list absence requests by employee: %w", err)
	}
	return collectRequests(rows)
}

func (s *Postgres) List(ctx context.Context) ([]*models.AbsenceRequest, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+requestColumns+` FROM absence_requests ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list absence requests: %w", err)
	}
	return collectRequests(rows)
}

// Execute locks the row, runs validate against the current state, applies
// mutate, and writes the result back. Must run inside a transaction (the
// service's tx runner puts one in context); FOR UPDATE outside a transaction
// would release the lock immediately.
func (s *Postgres) Execute(ctx context.Context, requestID id.RequestID, validate func(*models.AbsenceRequest) error, mutate func(*models.AbsenceRequest)) (*models.AbsenceRequest, error) {
	q := s.q(ctx)
	row := q.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM absence_requests WHERE id = $1 FOR UPDATE`,
		uuid.UUID(requestID),
	)
	r, err := scanRequest(row)
	if err != nil {
		return nil, err
	}
	if err := validate(r); err != nil {
		return nil, err
	}
	mutate(r)

	_, err = q.ExecContext(ctx, `
		UPDATE absence_requests
		SET request_type = $2, start_date = $3, end_date = $4, total_days = $5, reason = $6,
		    status = $7, current_approval_stage = $8, approved_by = $9, approved_date = $10,
		    rejected_by = $11, rejected_date = $12, rejection_reason = $13, updated_at = $14
		WHERE id = $1`,
		uuid.UUID(r.ID), r.RequestType, r.StartDate, r.EndDate, r.TotalDays, r.Reason,
		r.Status.String(), r.CurrentStage, nullableUser(r.ApprovedBy), r.ApprovedDate,
		nullableUser(r.RejectedBy), r.RejectedDate, nullString(r.RejectionReason), r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update absence request: %w", err)
	}
	return r, nil
}

func collectRequests(rows *sql.Rows) ([]*models.AbsenceRequest, error) {
	defer rows.Close()
	var out []*models.AbsenceRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*models.AbsenceRequest, error) {
	var (
		r               models.AbsenceRequest
		requestID       uuid.UUID
		employeeID      uuid.UUID
		status          string
		approvedBy      uuid.NullUUID
		rejectedBy      uuid.NullUUID
		rejectionReason sql.NullString
	)
	err := row.Scan(&requestID, &employeeID, &r.RequestType, &r.StartDate, &r.EndDate,
		&r.TotalDays, &r.Reason, &status, &r.CurrentStage, &approvedBy, &r.ApprovedDate,
		&rejectedBy, &r.RejectedDate, &rejectionReason, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan absence request: %w", err)
	}
	r.ID = id.RequestID(requestID)
	r.EmployeeID = id.UserID(employeeID)
	r.Status = models.Status(status)
	if approvedBy.Valid {
		u := id.UserID(approvedBy.UUID)
		r.ApprovedBy = &u
	}
	if rejectedBy.Valid {
		u := id.UserID(rejectedBy.UUID)
		r.RejectedBy = &u
	}
	r.RejectionReason = rejectionReason.String
	return &r, nil
}

func nullableUser(u *id.UserID) any {
	if u == nil {
		return nil
	}
	return uuid.UUID(*u)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
