// Package domain holds typed identifiers and enumerations shared across modules.
//
// IDs are distinct uuid-backed types so the compiler rejects cross-entity
// assignment (a RequestID can never be passed where a UserID is expected).
// Construct from external input via the Parse functions; direct casting
// bypasses validation and is reserved for internal code that already holds a
// valid uuid.
package domain

import (
	"github.com/google/uuid"

	dErrors "hrportal/pkg/domain-errors"
)

type (
	// UserID identifies an employee/actor record.
	UserID uuid.UUID
	// RequestID identifies an absence request.
	RequestID uuid.UUID
	// EntryID identifies an approval-history entry.
	EntryID uuid.UUID
	// NotificationID identifies a notification row.
	NotificationID uuid.UUID
	// ContactID identifies an emergency contact.
	ContactID uuid.UUID
)

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be nil")
	}
	return u, nil
}

// ParseUserID validates and converts an external string into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

// ParseRequestID validates and converts an external string into a RequestID.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request")
	return RequestID(u), err
}

// ParseEntryID validates and converts an external string into an EntryID.
func ParseEntryID(s string) (EntryID, error) {
	u, err := parseUUID(s, "entry")
	return EntryID(u), err
}

// ParseNotificationID validates and converts an external string into a NotificationID.
func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s, "notification")
	return NotificationID(u), err
}

// ParseContactID validates and converts an external string into a ContactID.
func ParseContactID(s string) (ContactID, error) {
	u, err := parseUUID(s, "contact")
	return ContactID(u), err
}

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id RequestID) String() string      { return uuid.UUID(id).String() }
func (id EntryID) String() string        { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id ContactID) String() string      { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ContactID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// MarshalText/UnmarshalText keep the uuid wire form in JSON payloads.

func (id UserID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id *UserID) UnmarshalText(b []byte) error { u, err := uuid.Parse(string(b)); *id = UserID(u); return err }

func (id RequestID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id *RequestID) UnmarshalText(b []byte) error { u, err := uuid.Parse(string(b)); *id = RequestID(u); return err }

func (id EntryID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id *EntryID) UnmarshalText(b []byte) error { u, err := uuid.Parse(string(b)); *id = EntryID(u); return err }

func (id NotificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *NotificationID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*id = NotificationID(u)
	return err
}

func (id ContactID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id *ContactID) UnmarshalText(b []byte) error { u, err := uuid.Parse(string(b)); *id = ContactID(u); return err }
