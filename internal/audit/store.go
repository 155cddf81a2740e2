package audit

import (
	"context"
	"sync"
)

// Store is the append-only persistence seam for the event trail.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCandidate(ctx context.Context, candidateID int64) ([]Event, error)
}

// InMemoryStore keeps the trail in memory for tests and local development.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByCandidate(_ context.Context, candidateID int64) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.CandidateID == candidateID {
			out = append(out, e)
		}
	}
	return out, nil
}
