package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"hrportal/internal/notification/models"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
)

// InMemory is the map-backed notification store.
type InMemory struct {
	mu            sync.Mutex
	notifications map[id.NotificationID]*models.Notification
}

func NewInMemory() *InMemory {
	return &InMemory{notifications: make(map[id.NotificationID]*models.Notification)}
}

func (s *InMemory) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[n.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

// ListByUser returns the user's notifications, newest first.
func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MarkRead flips the read flag on the owner's notification. A notification
// belonging to another user is indistinguishable from a missing one.
func (s *InMemory) MarkRead(_ context.Context, notifID id.NotificationID, ownerID id.UserID, now time.Time) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[notifID]
	if !ok || n.UserID != ownerID {
		return nil, sentinel.ErrNotFound
	}
	n.MarkRead(now)
	cp := *n
	return &cp, nil
}
