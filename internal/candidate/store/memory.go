package store

import (
	"context"
	"sync"
	"time"

	"candidate-onboarding/internal/candidate/models"
	"candidate-onboarding/pkg/platform/sentinel"
)

// In-memory stores back tests and local development. They intentionally
// favor clarity over performance; records are value types, so every read
// hands back a copy and writers cannot alias store state.

type InMemoryCandidateStore struct {
	mu         sync.RWMutex
	candidates map[int64]models.Candidate
	nextID     int64
}

func NewInMemoryCandidateStore() *InMemoryCandidateStore {
	return &InMemoryCandidateStore{candidates: make(map[int64]models.Candidate), nextID: 1}
}

func (s *InMemoryCandidateStore) Create(_ context.Context, candidate models.Candidate) (models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate.ID = s.nextID
	s.nextID++
	candidate.Version = 1
	now := time.Now()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	s.candidates[candidate.ID] = candidate
	return candidate, nil
}

func (s *InMemoryCandidateStore) FindByID(_ context.Context, id int64) (models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.candidates[id]; ok {
		return c, nil
	}
	return models.Candidate{}, sentinel.ErrNotFound
}

func (s *InMemoryCandidateStore) List(_ context.Context) ([]models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		out = append(out, c)
	}
	return out, nil
}

func (s *InMemoryCandidateStore) ListByStatus(_ context.Context, status models.Status) ([]models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Candidate
	for _, c := range s.candidates {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *InMemoryCandidateStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.candidates)), nil
}

// Update is the conditional write: it succeeds only when the stored version
// still matches candidate.Version, then bumps the version and UpdatedAt.
func (s *InMemoryCandidateStore) Update(_ context.Context, candidate models.Candidate) (models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.candidates[candidate.ID]
	if !ok {
		return models.Candidate{}, sentinel.ErrNotFound
	}
	if current.Version != candidate.Version {
		return models.Candidate{}, sentinel.ErrVersionConflict
	}
	candidate.Version++
	candidate.UpdatedAt = time.Now()
	candidate.CreatedAt = current.CreatedAt
	s.candidates[candidate.ID] = candidate
	return candidate, nil
}

type InMemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string]models.Document
}

func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{docs: make(map[string]models.Document)}
}

func (s *InMemoryDocumentStore) Save(_ context.Context, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.UpdatedAt = time.Now()
	s.docs[doc.ID] = doc
	return nil
}

func (s *InMemoryDocumentStore) FindByID(_ context.Context, id string) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.docs[id]; ok {
		return d, nil
	}
	return models.Document{}, sentinel.ErrNotFound
}

func (s *InMemoryDocumentStore) ListByCandidate(_ context.Context, candidateID int64) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Document
	for _, d := range s.docs {
		if d.CandidateID == candidateID {
			out = append(out, d)
		}
	}
	return out, nil
}

type InMemoryBankInfoStore struct {
	mu      sync.RWMutex
	records map[int64]models.BankInfo
}

func NewInMemoryBankInfoStore() *InMemoryBankInfoStore {
	return &InMemoryBankInfoStore{records: make(map[int64]models.BankInfo)}
}

func (s *InMemoryBankInfoStore) Save(_ context.Context, info models.BankInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	info.UpdatedAt = time.Now()
	s.records[info.CandidateID] = info
	return nil
}

func (s *InMemoryBankInfoStore) FindByCandidate(_ context.Context, candidateID int64) (models.BankInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[candidateID]; ok {
		return r, nil
	}
	return models.BankInfo{}, sentinel.ErrNotFound
}

type InMemoryEducationStore struct {
	mu      sync.RWMutex
	records map[int64]models.Education
}

func NewInMemoryEducationStore() *InMemoryEducationStore {
	return &InMemoryEducationStore{records: make(map[int64]models.Education)}
}

func (s *InMemoryEducationStore) Save(_ context.Context, edu models.Education) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	edu.UpdatedAt = time.Now()
	s.records[edu.CandidateID] = edu
	return nil
}

func (s *InMemoryEducationStore) FindByCandidate(_ context.Context, candidateID int64) (models.Education, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[candidateID]; ok {
		return r, nil
	}
	return models.Education{}, sentinel.ErrNotFound
}
