// Package service implements the emergency contact CRUD. Every operation is
// scoped to the owner given by the caller: a contact stored under another
// user is reported as absent, never as forbidden.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"hrportal/internal/contacts/models"
	"hrportal/internal/ownership"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/sentinel"
	"hrportal/pkg/requestcontext"
)

// ContactStore is the persistence seam for emergency contacts.
type ContactStore interface {
	Create(ctx context.Context, c *models.EmergencyContact) error
	FindByID(ctx context.Context, contactID id.ContactID) (*models.EmergencyContact, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.EmergencyContact, error)
	Update(ctx context.Context, c *models.EmergencyContact) error
	Delete(ctx context.Context, contactID id.ContactID) error
}

// Service owns the contact lifecycle.
type Service struct {
	contacts ContactStore
}

func New(contacts ContactStore) *Service {
	return &Service{contacts: contacts}
}

// ContactInput carries the create/update payload.
type ContactInput struct {
	Name         string
	Relationship string
	Phone        string
	Email        string
}

// Create stores a new contact under the owner.
func (s *Service) Create(ctx context.Context, ownerID id.UserID, in ContactInput) (*models.EmergencyContact, error) {
	contact, err := models.NewEmergencyContact(
		id.ContactID(uuid.New()), ownerID, in.Name, in.Relationship, in.Phone, in.Email,
		requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store contact")
	}
	return contact, nil
}

// List returns the owner's contacts.
func (s *Service) List(ctx context.Context, ownerID id.UserID) ([]*models.EmergencyContact, error) {
	cs, err := s.contacts.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contacts")
	}
	if cs == nil {
		cs = []*models.EmergencyContact{}
	}
	return cs, nil
}

// Get loads one of the owner's contacts.
func (s *Service) Get(ctx context.Context, ownerID id.UserID, contactID id.ContactID) (*models.EmergencyContact, error) {
	return s.ownedContact(ctx, ownerID, contactID)
}

// Update replaces the mutable fields of one of the owner's contacts.
func (s *Service) Update(ctx context.Context, ownerID id.UserID, contactID id.ContactID, in ContactInput) (*models.EmergencyContact, error) {
	contact, err := s.ownedContact(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}

	updated, err := models.NewEmergencyContact(
		contact.ID, contact.UserID, in.Name, in.Relationship, in.Phone, in.Email,
		requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	updated.CreatedAt = contact.CreatedAt

	if err := s.contacts.Update(ctx, updated); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contact not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update contact")
	}
	return updated, nil
}

// Delete removes one of the owner's contacts.
func (s *Service) Delete(ctx context.Context, ownerID id.UserID, contactID id.ContactID) error {
	if _, err := s.ownedContact(ctx, ownerID, contactID); err != nil {
		return err
	}
	if err := s.contacts.Delete(ctx, contactID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "contact not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete contact")
	}
	return nil
}

func (s *Service) ownedContact(ctx context.Context, ownerID id.UserID, contactID id.ContactID) (*models.EmergencyContact, error) {
	contact, err := s.contacts.FindByID(ctx, contactID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contact not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contact")
	}
	if err := ownership.RequireStoredOwner(ownerID, contact.OwnerRef()); err != nil {
		return nil, err
	}
	return contact, nil
}
