// Package service orchestrates the absence request approval workflow: a
// multi-stage chain walked by approval decisions, with an append-only ledger
// entry and post-commit notifications for every successful transition.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	wfmetrics "hrportal/internal/absence/metrics"
	"hrportal/internal/absence/models"
	authmodels "hrportal/internal/auth/models"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/sentinel"
	"hrportal/pkg/platform/tx"
	"hrportal/pkg/requestcontext"
)

// RequestStore is the persistence seam for absence requests. Execute runs
// validate and mutate atomically against the current stored state.
type RequestStore interface {
	Create(ctx context.Context, r *models.AbsenceRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.AbsenceRequest, error)
	ListByEmployee(ctx context.Context, employeeID id.UserID) ([]*models.AbsenceRequest, error)
	List(ctx context.Context) ([]*models.AbsenceRequest, error)
	Execute(ctx context.Context, requestID id.RequestID, validate func(*models.AbsenceRequest) error, mutate func(*models.AbsenceRequest)) (*models.AbsenceRequest, error)
}

// HistoryStore is the append-only approval ledger.
type HistoryStore interface {
	Append(ctx context.Context, e *models.ApprovalHistoryEntry) error
	ListByRequest(ctx context.Context, requestID id.RequestID) ([]*models.ApprovalHistoryEntry, error)
}

// UserDirectory resolves employees and their supervisors for notification
// routing.
type UserDirectory interface {
	FindByID(ctx context.Context, userID id.UserID) (*authmodels.User, error)
}

// Notifier delivers workflow notifications. Dispatch runs after the
// transition has committed; a delivery failure never fails the transition.
type Notifier interface {
	Dispatch(ctx context.Context, userID id.UserID, requestID id.RequestID, kind, message string) error
}

// Transition outcomes used for metrics and notification kinds.
const (
	OutcomeStageAdvanced = "stage_advanced"
	OutcomeApproved      = "approved"
	OutcomeRejected      = "rejected"
	OutcomeCancelled     = "cancelled"
	OutcomeArchived      = "archived"
)

// Service owns the approval workflow state machine.
type Service struct {
	requests RequestStore
	history  HistoryStore
	users    UserDirectory
	runner   tx.Runner
	stages   models.Stages
	notifier Notifier
	metrics  *wfmetrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *wfmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(requests RequestStore, history HistoryStore, users UserDirectory, runner tx.Runner, stages models.Stages, logger *slog.Logger, opts ...Option) *Service {
	if len(stages) == 0 {
		stages = models.DefaultStages()
	}
	s := &Service{
		requests: requests,
		history:  history,
		users:    users,
		runner:   runner,
		stages:   stages,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitInput carries a new absence request.
type SubmitInput struct {
	EmployeeID  id.UserID
	RequestType string
	StartDate   time.Time
	EndDate     time.Time
	TotalDays   float64
	Reason      string
}

// Submit validates and stores a new request in PENDING at the first approval
// stage. The employee's supervisor is notified that a request awaits them.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.AbsenceRequest, error) {
	employee, err := s.users.FindByID(ctx, in.EmployeeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load employee")
	}

	now := requestcontext.Now(ctx)
	request, err := models.NewAbsenceRequest(
		id.RequestID(uuid.New()), in.EmployeeID, in.RequestType,
		in.StartDate, in.EndDate, in.TotalDays, in.Reason,
		s.stages.First(), now,
	)
	if err != nil {
		return nil, err
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store absence request")
	}
	s.metrics.IncrementSubmitted()

	if employee.SupervisorID != nil {
		s.notify(ctx, *employee.SupervisorID, request.ID, "request_submitted",
			fmt.Sprintf("%s submitted a %s request awaiting your review", employee.Name, request.RequestType))
	} else {
		s.logger.InfoContext(ctx, "no supervisor to notify for new request",
			"request_id", request.ID, "employee_id", in.EmployeeID)
	}
	return request, nil
}

// Decide applies an APPROVE or REJECT decision to a pending request. An
// approval at a non-final stage advances the chain; at the final stage it
// finalizes the request. A rejection is terminal at any stage. Exactly one
// ledger entry is appended, in the same transaction as the status change.
func (s *Service) Decide(ctx context.Context, requestID id.RequestID, action models.Action, comments string) (*models.AbsenceRequest, error) {
	ident, ok := requestcontext.Identity(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if action != models.ActionApprove && action != models.ActionReject {
		return nil, dErrors.New(dErrors.CodeValidation, "action must be APPROVE or REJECT")
	}

	now := requestcontext.Now(ctx)
	var (
		updated *models.AbsenceRequest
		stage   string
		outcome string
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.requests.Execute(ctx, requestID,
			func(r *models.AbsenceRequest) error { return r.CanDecide() },
			func(r *models.AbsenceRequest) {
				stage = r.CurrentStage
				switch action {
				case models.ActionApprove:
					if next, more := s.stages.Next(r.CurrentStage); more {
						r.ApplyStageAdvance(next, now)
						outcome = OutcomeStageAdvanced
					} else {
						r.ApplyApproval(ident.SubjectID, now)
						outcome = OutcomeApproved
					}
				case models.ActionReject:
					r.ApplyRejection(ident.SubjectID, comments, now)
					outcome = OutcomeRejected
				}
			},
		)
		if err != nil {
			return err
		}
		entry, err := models.NewApprovalHistoryEntry(
			id.EntryID(uuid.New()), requestID, ident.SubjectID, stage, action, comments, now)
		if err != nil {
			return err
		}
		return s.history.Append(ctx, entry)
	})
	if err != nil {
		return nil, s.translateTransitionErr(err, "decision")
	}

	s.metrics.IncrementTransition(outcome)
	switch outcome {
	case OutcomeStageAdvanced:
		s.notify(ctx, updated.EmployeeID, updated.ID, outcome,
			fmt.Sprintf("your %s request advanced to the %s stage", updated.RequestType, updated.CurrentStage))
		s.notifyNextApprover(ctx, updated)
	case OutcomeApproved:
		s.notify(ctx, updated.EmployeeID, updated.ID, outcome,
			fmt.Sprintf("your %s request was approved", updated.RequestType))
	case OutcomeRejected:
		s.notify(ctx, updated.EmployeeID, updated.ID, outcome,
			fmt.Sprintf("your %s request was rejected", updated.RequestType))
	}
	return updated, nil
}

// Cancel withdraws a pending request. Only the requesting employee or an
// admin may cancel; anyone else sees the request as absent.
func (s *Service) Cancel(ctx context.Context, requestID id.RequestID) (*models.AbsenceRequest, error) {
	ident, ok := requestcontext.Identity(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	now := requestcontext.Now(ctx)
	var (
		updated *models.AbsenceRequest
		stage   string
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.requests.Execute(ctx, requestID,
			func(r *models.AbsenceRequest) error {
				if r.EmployeeID != ident.SubjectID && ident.Role != id.RoleAdmin {
					return dErrors.New(dErrors.CodeNotFound, "absence request not found")
				}
				return r.CanCancel()
			},
			func(r *models.AbsenceRequest) {
				stage = r.CurrentStage
				r.ApplyCancellation(now)
			},
		)
		if err != nil {
			return err
		}
		entry, err := models.NewApprovalHistoryEntry(
			id.EntryID(uuid.New()), requestID, ident.SubjectID, stage, models.ActionCancel, "", now)
		if err != nil {
			return err
		}
		return s.history.Append(ctx, entry)
	})
	if err != nil {
		return nil, s.translateTransitionErr(err, "cancellation")
	}

	s.metrics.IncrementTransition(OutcomeCancelled)
	s.notify(ctx, updated.EmployeeID, updated.ID, OutcomeCancelled,
		fmt.Sprintf("your %s request was cancelled", updated.RequestType))
	return updated, nil
}

// Archive moves a decided or cancelled request to ARCHIVED. Requests are
// never deleted; archival is the end of the lifecycle.
func (s *Service) Archive(ctx context.Context, requestID id.RequestID) (*models.AbsenceRequest, error) {
	ident, ok := requestcontext.Identity(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	now := requestcontext.Now(ctx)
	var (
		updated *models.AbsenceRequest
		stage   string
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.requests.Execute(ctx, requestID,
			func(r *models.AbsenceRequest) error { return r.CanArchive() },
			func(r *models.AbsenceRequest) {
				stage = r.CurrentStage
				r.ApplyArchival(now)
			},
		)
		if err != nil {
			return err
		}
		entry, err := models.NewApprovalHistoryEntry(
			id.EntryID(uuid.New()), requestID, ident.SubjectID, stage, models.ActionArchive, "", now)
		if err != nil {
			return err
		}
		return s.history.Append(ctx, entry)
	})
	if err != nil {
		return nil, s.translateTransitionErr(err, "archival")
	}

	s.metrics.IncrementTransition(OutcomeArchived)
	s.notify(ctx, updated.EmployeeID, updated.ID, OutcomeArchived,
		fmt.Sprintf("your %s request was archived", updated.RequestType))
	return updated, nil
}

// EditInput carries the mutable fields of a pending request.
type EditInput struct {
	RequestType string
	StartDate   time.Time
	EndDate     time.Time
	TotalDays   float64
	Reason      string
}

// Edit updates type, dates and reason on a request that is still pending.
// Edits are not approval decisions and leave the ledger untouched.
func (s *Service) Edit(ctx context.Context, requestID id.RequestID, in EditInput) (*models.AbsenceRequest, error) {
	if in.RequestType == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "request type is required")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, dErrors.New(dErrors.CodeValidation, "end date must not precede start date")
	}
	if in.TotalDays <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "total days must be positive")
	}

	now := requestcontext.Now(ctx)
	var updated *models.AbsenceRequest
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.requests.Execute(ctx, requestID,
			func(r *models.AbsenceRequest) error { return r.CanEdit() },
			func(r *models.AbsenceRequest) {
				r.RequestType = in.RequestType
				r.StartDate = in.StartDate
				r.EndDate = in.EndDate
				r.TotalDays = in.TotalDays
				r.Reason = in.Reason
				r.UpdatedAt = now
			},
		)
		return err
	})
	if err != nil {
		return nil, s.translateTransitionErr(err, "edit")
	}
	return updated, nil
}

// Get loads a request by id without any ownership filtering. Callers that
// serve owner-scoped routes apply their own visibility checks.
func (s *Service) Get(ctx context.Context, requestID id.RequestID) (*models.AbsenceRequest, error) {
	r, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "absence request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load absence request")
	}
	return r, nil
}

// ListByEmployee returns all requests belonging to one employee.
func (s *Service) ListByEmployee(ctx context.Context, employeeID id.UserID) ([]*models.AbsenceRequest, error) {
	rs, err := s.requests.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list absence requests")
	}
	return rs, nil
}

// List returns every request in the system, for reviewer views.
func (s *Service) List(ctx context.Context) ([]*models.AbsenceRequest, error) {
	rs, err := s.requests.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list absence requests")
	}
	return rs, nil
}

// History returns the full approval ledger for a request. Unknown requests
// are distinguished from requests with no decisions yet.
func (s *Service) History(ctx context.Context, requestID id.RequestID) ([]*models.ApprovalHistoryEntry, error) {
	if _, err := s.Get(ctx, requestID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list approval history")
	}
	if entries == nil {
		entries = []*models.ApprovalHistoryEntry{}
	}
	return entries, nil
}

// translateTransitionErr maps store and model errors onto the API error
// taxonomy. A decision on a non-pending request is a conflict, not a no-op.
func (s *Service) translateTransitionErr(err error, op string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "absence request not found")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		s.metrics.IncrementDecisionConflict()
		return dErrors.Wrap(err, dErrors.CodeConflict, dErrors.MessageOf(err))
	case dErrors.HasCode(err, dErrors.CodeNotFound),
		dErrors.HasCode(err, dErrors.CodeValidation):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply "+op)
	}
}

// notifyNextApprover routes a stage advancement to the employee's supervisor.
// Employees without a supervisor are logged and skipped.
func (s *Service) notifyNextApprover(ctx context.Context, r *models.AbsenceRequest) {
	employee, err := s.users.FindByID(ctx, r.EmployeeID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to resolve employee for approver notification",
			"request_id", r.ID, "employee_id", r.EmployeeID, "error", err)
		return
	}
	if employee.SupervisorID == nil {
		s.logger.InfoContext(ctx, "no supervisor to notify for stage advancement",
			"request_id", r.ID, "stage", r.CurrentStage)
		return
	}
	s.notify(ctx, *employee.SupervisorID, r.ID, "approval_needed",
		fmt.Sprintf("%s's %s request reached the %s stage", employee.Name, r.RequestType, r.CurrentStage))
}

func (s *Service) notify(ctx context.Context, userID id.UserID, requestID id.RequestID, kind, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Dispatch(ctx, userID, requestID, kind, message); err != nil {
		s.logger.ErrorContext(ctx, "failed to dispatch notification",
			"user_id", userID, "request_id", requestID, "kind", kind, "error", err)
	}
}
