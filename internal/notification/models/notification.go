package models

import (
	"strings"
	"time"

	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
)

// Notification is a per-user message produced by workflow transitions.
// Notifications are owned by exactly one user and are only visible to them.
type Notification struct {
	ID        id.NotificationID `json:"id"`
	UserID    id.UserID         `json:"user_id"`
	RequestID *id.RequestID     `json:"request_id,omitempty"`
	Kind      string            `json:"kind"`
	Message   string            `json:"message"`
	IsRead    bool              `json:"is_read"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewNotification validates and constructs an unread notification.
func NewNotification(notifID id.NotificationID, userID id.UserID, requestID *id.RequestID, kind, message string, now time.Time) (*Notification, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "notification requires a recipient")
	}
	if strings.TrimSpace(message) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "notification requires a message")
	}
	return &Notification{
		ID:        notifID,
		UserID:    userID,
		RequestID: requestID,
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
	}, nil
}

// MarkRead flips the read flag. Marking an already read notification again
// keeps the original ReadAt.
func (n *Notification) MarkRead(now time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	readAt := now
	n.ReadAt = &readAt
}
