// Package store persists candidate workflow records. Stores are
// interface-driven to keep the domain logic testable and to allow swapping
// in-memory and PostgreSQL persistence without rewiring business code.
package store

import (
	"context"

	"candidate-onboarding/internal/candidate/models"
)

// CandidateStore owns candidate records. Update is conditional on the
// Version field observed at read time: a stale version fails with
// sentinel.ErrVersionConflict and nothing is written, giving racing
// transitions at-most-one-winner semantics without locks.
type CandidateStore interface {
	Create(ctx context.Context, candidate models.Candidate) (models.Candidate, error)
	FindByID(ctx context.Context, id int64) (models.Candidate, error)
	List(ctx context.Context) ([]models.Candidate, error)
	ListByStatus(ctx context.Context, status models.Status) ([]models.Candidate, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, candidate models.Candidate) (models.Candidate, error)
}

// DocumentStore owns the per-candidate document set the verification gate
// reads. Save commits the whole record; reads always observe committed state.
type DocumentStore interface {
	Save(ctx context.Context, doc models.Document) error
	FindByID(ctx context.Context, id string) (models.Document, error)
	ListByCandidate(ctx context.Context, candidateID int64) ([]models.Document, error)
}

// BankInfoStore keeps one bank record per candidate.
type BankInfoStore interface {
	Save(ctx context.Context, info models.BankInfo) error
	FindByCandidate(ctx context.Context, candidateID int64) (models.BankInfo, error)
}

// EducationStore keeps one education record per candidate.
type EducationStore interface {
	Save(ctx context.Context, edu models.Education) error
	FindByCandidate(ctx context.Context, candidateID int64) (models.Education, error)
}
