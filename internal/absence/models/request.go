package models

import (
	"strings"
	"time"

	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
)

// Status is the lifecycle state of an absence request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusArchived  Status = "ARCHIVED"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusApproved:  true,
	StatusRejected:  true,
	StatusCancelled: true,
	StatusArchived:  true,
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(s))
	if !validStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	return st, nil
}

func (s Status) String() string { return string(s) }

// Archivable reports whether a request in this status may move to ARCHIVED.
// PENDING requests must be decided or cancelled first; ARCHIVED is final.
func (s Status) Archivable() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// Stages is the ordered approval chain a pending request walks through.
type Stages []string

// DefaultStages mirrors the seed configuration: supervisor first, then HR.
func DefaultStages() Stages { return Stages{"SUPERVISOR", "HR"} }

// First returns the entry stage for new requests.
func (s Stages) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Next returns the stage after current, or ok=false when current is the last
// stage (an approval there is final).
func (s Stages) Next(current string) (next string, ok bool) {
	for i, stage := range s {
		if stage == current && i+1 < len(s) {
			return s[i+1], true
		}
	}
	return "", false
}

// Contains reports whether stage is part of the chain.
func (s Stages) Contains(stage string) bool {
	for _, st := range s {
		if st == stage {
			return true
		}
	}
	return false
}

// AbsenceRequest is the aggregate root of the approval workflow.
//
// Invariants:
//   - EndDate >= StartDate and TotalDays > 0
//   - Status transitions: PENDING -> {PENDING(next stage), APPROVED, REJECTED,
//     CANCELLED}; {APPROVED, REJECTED, CANCELLED} -> ARCHIVED; ARCHIVED is final
//   - ApprovedBy/ApprovedDate are set iff the request reached APPROVED;
//     RejectedBy/RejectedDate iff REJECTED
//   - The approver fields are a denormalized cache of the approval ledger:
//     they must always equal the approver of the most recent terminal ledger
//     entry, and are written in the same transaction as that entry
//   - Requests are never deleted; terminal requests are archived
type AbsenceRequest struct {
	ID              id.RequestID  `json:"id"`
	EmployeeID      id.UserID     `json:"employee_id"`
	RequestType     string        `json:"request_type"`
	StartDate       time.Time     `json:"start_date"`
	EndDate         time.Time     `json:"end_date"`
	TotalDays       float64       `json:"total_days"`
	Reason          string        `json:"reason"`
	Status          Status        `json:"status"`
	CurrentStage    string        `json:"current_approval_stage"`
	ApprovedBy      *id.UserID    `json:"approved_by,omitempty"`
	ApprovedDate    *time.Time    `json:"approved_date,omitempty"`
	RejectedBy      *id.UserID    `json:"rejected_by,omitempty"`
	RejectedDate    *time.Time    `json:"rejected_date,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// NewAbsenceRequest validates the date invariants and constructs a request in
// PENDING at the first stage.
func NewAbsenceRequest(requestID id.RequestID, employeeID id.UserID, requestType string, start, end time.Time, totalDays float64, reason string, firstStage string, now time.Time) (*AbsenceRequest, error) {
	requestType = strings.TrimSpace(requestType)
	if requestType == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "request type is required")
	}
	if start.IsZero() || end.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "start and end dates are required")
	}
	if end.Before(start) {
		return nil, dErrors.New(dErrors.CodeValidation, "end date must not precede start date")
	}
	if totalDays <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "total days must be positive")
	}
	if firstStage == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "approval chain has no first stage")
	}
	return &AbsenceRequest{
		ID:           requestID,
		EmployeeID:   employeeID,
		RequestType:  requestType,
		StartDate:    start,
		EndDate:      end,
		TotalDays:    totalDays,
		Reason:       reason,
		Status:       StatusPending,
		CurrentStage: firstStage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CanDecide checks that the request still accepts approval decisions.
// Anything not PENDING is a strict no-op for the caller: no ledger row, no
// silent acceptance of retried or racing decisions.
func (r *AbsenceRequest) CanDecide() error {
	if r.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "request is no longer pending")
	}
	return nil
}

// ApplyStageAdvance moves a pending request to the next approval stage.
// Call CanDecide first.
func (r *AbsenceRequest) ApplyStageAdvance(nextStage string, now time.Time) {
	r.CurrentStage = nextStage
	r.UpdatedAt = now
}

// ApplyApproval finalizes the request as APPROVED and caches the approver.
// Call CanDecide first; only valid at the last stage.
func (r *AbsenceRequest) ApplyApproval(approver id.UserID, now time.Time) {
	r.Status = StatusApproved
	r.ApprovedBy = &approver
	approvedAt := now
	r.ApprovedDate = &approvedAt
	r.UpdatedAt = now
}

// ApplyRejection finalizes the request as REJECTED, terminal at any stage.
// Call CanDecide first.
func (r *AbsenceRequest) ApplyRejection(approver id.UserID, reason string, now time.Time) {
	r.Status = StatusRejected
	r.RejectedBy = &approver
	rejectedAt := now
	r.RejectedDate = &rejectedAt
	r.RejectionReason = reason
	r.UpdatedAt = now
}

// CanCancel checks that cancellation is still possible.
func (r *AbsenceRequest) CanCancel() error {
	if r.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "only pending requests can be cancelled")
	}
	return nil
}

// ApplyCancellation moves the request to CANCELLED. Call CanCancel first.
func (r *AbsenceRequest) ApplyCancellation(now time.Time) {
	r.Status = StatusCancelled
	r.UpdatedAt = now
}

// CanArchive checks the request is in a terminal, not yet archived state.
func (r *AbsenceRequest) CanArchive() error {
	if !r.Status.Archivable() {
		return dErrors.New(dErrors.CodeInvariantViolation, "request cannot be archived from its current status")
	}
	return nil
}

// ApplyArchival moves the request to ARCHIVED. Call CanArchive first.
func (r *AbsenceRequest) ApplyArchival(now time.Time) {
	r.Status = StatusArchived
	r.UpdatedAt = now
}

// CanEdit checks that the employee may still change type, dates or reason.
func (r *AbsenceRequest) CanEdit() error {
	if r.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "only pending requests can be edited")
	}
	return nil
}
