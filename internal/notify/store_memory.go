package notify

import (
	"context"
	"sync"
)

// InMemoryClaimStore backs tests and single-process deployments.
type InMemoryClaimStore struct {
	mu     sync.Mutex
	claims map[string]State
}

func NewInMemoryClaimStore() *InMemoryClaimStore {
	return &InMemoryClaimStore{claims: make(map[string]State)}
}

func (s *InMemoryClaimStore) TryAcquire(_ context.Context, key string) (bool, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.claims[key]; ok {
		return false, state, nil
	}
	s.claims[key] = StateSending
	return true, StateSending, nil
}

func (s *InMemoryClaimStore) MarkSent(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[key] = StateSent
	return nil
}

func (s *InMemoryClaimStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claims[key] == StateSending {
		delete(s.claims, key)
	}
	return nil
}
