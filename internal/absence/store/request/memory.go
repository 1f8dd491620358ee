package request

import (
	"context"
	"sort"
	"sync"

	"hrportal/internal/absence/models"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
)

// InMemory is the map-backed request store. Execute holds the store lock for
// the whole validate-then-mutate window, which is what makes two racing
// transitions on the same request serialize: the loser revalidates against
// the winner's state and fails.
type InMemory struct {
	mu       sync.Mutex
	requests map[id.RequestID]*models.AbsenceRequest
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.RequestID]*models.AbsenceRequest)}
}

func (s *InMemory) Create(_ context.Context, r *models.AbsenceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[r.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.RequestID) (*models.AbsenceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *InMemory) ListByEmployee(_ context.Context, employeeID id.UserID) ([]*models.AbsenceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.AbsenceRequest
	for _, r := range s.requests {
		if r.EmployeeID == employeeID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.AbsenceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.AbsenceRequest, 0, len(s.requests))
	for _, r := range s.requests {
		cp := *r
		out = append(out, &cp)
	}
	sortByCreation(out)
	return out, nil
}

// Execute atomically runs validate then mutate against the stored request.
// If validate fails nothing is written and the error is returned unchanged so
// the service can translate it.
func (s *InMemory) Execute(_ context.Context, requestID id.RequestID, validate func(*models.AbsenceRequest) error, mutate func(*models.AbsenceRequest)) (*models.AbsenceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(r); err != nil {
		return nil, err
	}
	mutate(r)
	cp := *r
	return &cp, nil
}

func sortByCreation(rs []*models.AbsenceRequest) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].ID.String() < rs[j].ID.String()
		}
		return rs[i].CreatedAt.Before(rs[j].CreatedAt)
	})
}
