package models

import (
	"strings"
	"time"

	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
)

// EmergencyContact is a user-owned sub-resource reachable only through the
// owner's path.
type EmergencyContact struct {
	ID           id.ContactID `json:"id"`
	UserID       id.UserID    `json:"user_id"`
	Name         string       `json:"name"`
	Relationship string       `json:"relationship"`
	Phone        string       `json:"phone"`
	Email        string       `json:"email,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// OwnerRef returns the owning user, satisfying the ownership checks.
func (c *EmergencyContact) OwnerRef() id.UserID { return c.UserID }

// NewEmergencyContact validates and constructs a contact.
func NewEmergencyContact(contactID id.ContactID, userID id.UserID, name, relationship, phone, email string, now time.Time) (*EmergencyContact, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "contact name is required")
	}
	if phone == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "contact phone is required")
	}
	return &EmergencyContact{
		ID:           contactID,
		UserID:       userID,
		Name:         name,
		Relationship: strings.TrimSpace(relationship),
		Phone:        phone,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
