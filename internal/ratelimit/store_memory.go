package ratelimit

import (
	"context"
	"sync"
	"time"

	"hrportal/pkg/requestcontext"
)

type memoryRecord struct {
	count       int
	windowEnds  time.Time
	lockedUntil time.Time
}

// MemoryLockoutStore keeps lockout state in process memory.
type MemoryLockoutStore struct {
	mu      sync.Mutex
	records map[string]*memoryRecord
}

func NewMemoryLockoutStore() *MemoryLockoutStore {
	return &MemoryLockoutStore{records: make(map[string]*memoryRecord)}
}

func (s *MemoryLockoutStore) IncrFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)
	rec, ok := s.records[key]
	if !ok || now.After(rec.windowEnds) {
		rec = &memoryRecord{windowEnds: now.Add(window)}
		s.records[key] = rec
	}
	rec.count++
	return rec.count, nil
}

func (s *MemoryLockoutStore) Lock(_ context.Context, key string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		rec = &memoryRecord{}
		s.records[key] = rec
	}
	rec.lockedUntil = until
	return nil
}

func (s *MemoryLockoutStore) LockedUntil(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || rec.lockedUntil.IsZero() {
		return time.Time{}, false, nil
	}
	return rec.lockedUntil, true, nil
}

func (s *MemoryLockoutStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}
