package store

import (
	"context"
	"sort"
	"sync"

	"hrportal/internal/contacts/models"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
)

// InMemory is the map-backed contact store.
type InMemory struct {
	mu       sync.Mutex
	contacts map[id.ContactID]*models.EmergencyContact
}

func NewInMemory() *InMemory {
	return &InMemory{contacts: make(map[id.ContactID]*models.EmergencyContact)}
}

func (s *InMemory) Create(_ context.Context, c *models.EmergencyContact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contacts[c.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *c
	s.contacts[c.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, contactID id.ContactID) (*models.EmergencyContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contacts[contactID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]*models.EmergencyContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.EmergencyContact
	for _, c := range s.contacts {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) Update(_ context.Context, c *models.EmergencyContact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contacts[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *c
	s.contacts[c.ID] = &cp
	return nil
}

func (s *InMemory) Delete(_ context.Context, contactID id.ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contacts[contactID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.contacts, contactID)
	return nil
}
