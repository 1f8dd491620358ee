package models

import (
	"strings"
	"time"

	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
)

// Action is the kind of workflow decision recorded in the approval ledger.
type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
	ActionCancel  Action = "CANCEL"
	ActionArchive Action = "ARCHIVE"
)

var validActions = map[Action]bool{
	ActionApprove: true,
	ActionReject:  true,
	ActionCancel:  true,
	ActionArchive: true,
}

// ParseAction constructs an Action from external input. Only APPROVE and
// REJECT are accepted over the wire; CANCEL and ARCHIVE rows are written by
// their dedicated operations.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if a != ActionApprove && a != ActionReject {
		return "", dErrors.New(dErrors.CodeValidation, "action must be APPROVE or REJECT")
	}
	return a, nil
}

func (a Action) String() string { return string(a) }

// IsValid checks the action is one of the recorded decision kinds.
func (a Action) IsValid() bool { return validActions[a] }

// ApprovalHistoryEntry is one row of the append-only approval ledger.
// Entries are created exactly once per successful transition and never
// updated or deleted; the full set for a request is its audit trail.
type ApprovalHistoryEntry struct {
	ID            id.EntryID   `json:"id"`
	RequestID     id.RequestID `json:"request_id"`
	ApproverID    id.UserID    `json:"approver_id"`
	ApprovalStage string       `json:"approval_stage"`
	Action        Action       `json:"action"`
	Comments      string       `json:"comments,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// NewApprovalHistoryEntry validates and constructs a ledger row.
func NewApprovalHistoryEntry(entryID id.EntryID, requestID id.RequestID, approverID id.UserID, stage string, action Action, comments string, now time.Time) (*ApprovalHistoryEntry, error) {
	if requestID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "ledger entry requires a request")
	}
	if approverID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "ledger entry requires an approver")
	}
	if !action.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "ledger entry action is invalid")
	}
	return &ApprovalHistoryEntry{
		ID:            entryID,
		RequestID:     requestID,
		ApproverID:    approverID,
		ApprovalStage: stage,
		Action:        action,
		Comments:      comments,
		CreatedAt:     now,
	}, nil
}
