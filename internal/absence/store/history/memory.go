// Package history is the approval ledger store. The interface is insert-only:
// no update or delete exists on any implementation, so the audit trail cannot
// be rewritten through any code path.
package history

import (
	"context"
	"sort"
	"sync"

	"hrportal/internal/absence/models"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
)

// InMemory is the map-backed ledger store.
type InMemory struct {
	mu      sync.RWMutex
	entries map[id.EntryID]*models.ApprovalHistoryEntry
	order   []id.EntryID
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[id.EntryID]*models.ApprovalHistoryEntry)}
}

// Append records a decision. Duplicate entry IDs conflict.
func (s *InMemory) Append(_ context.Context, e *models.ApprovalHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[e.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *e
	s.entries[e.ID] = &cp
	s.order = append(s.order, e.ID)
	return nil
}

// ListByRequest returns the full audit trail for a request in append order.
func (s *InMemory) ListByRequest(_ context.Context, requestID id.RequestID) ([]*models.ApprovalHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.ApprovalHistoryEntry
	for _, entryID := range s.order {
		e := s.entries[entryID]
		if e.RequestID == requestID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
