// Package verification is the document gate: it records per-document
// verification and answers the aggregate "fully verified" question the
// lifecycle state machine asks before completing onboarding.
package verification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"candidate-onboarding/internal/audit"
	"candidate-onboarding/internal/candidate/models"
	"candidate-onboarding/internal/platform/metrics"
	"candidate-onboarding/pkg/apperrors"
	"candidate-onboarding/pkg/platform/sentinel"
)

// DocumentStore is the slice of the record store this service needs.
type DocumentStore interface {
	Save(ctx context.Context, doc models.Document) error
	FindByID(ctx context.Context, id string) (models.Document, error)
	ListByCandidate(ctx context.Context, candidateID int64) ([]models.Document, error)
}

// Recorder receives workflow events for the audit trail.
type Recorder interface {
	Record(event audit.Event)
}

// Service persists document verification state. A document's verified flag
// only ever moves false to true here; nothing un-verifies.
type Service struct {
	docs    DocumentStore
	blobs   BlobStore
	trail   Recorder
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewService(docs DocumentStore, blobs BlobStore, trail Recorder, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{docs: docs, blobs: blobs, trail: trail, logger: logger, metrics: m}
}

// Upload stores the payload through the blob seam and records the returned
// locator on a new unverified document owned by the candidate.
func (s *Service) Upload(ctx context.Context, candidateID int64, name string, data []byte) (models.Document, error) {
	if name == "" {
		return models.Document{}, apperrors.New(apperrors.CodeBadRequest, "document name must not be empty")
	}
	locator, err := s.blobs.Store(ctx, name, data)
	if err != nil {
		return models.Document{}, apperrors.Wrap(apperrors.CodeInternal, "failed to store document payload", err)
	}
	doc := models.Document{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		Name:        name,
		BlobLocator: locator,
		Verified:    false,
		UploadedAt:  time.Now(),
	}
	if err := s.docs.Save(ctx, doc); err != nil {
		return models.Document{}, apperrors.Wrap(apperrors.CodeInternal, "failed to save document", err)
	}
	s.logger.Info("document uploaded",
		zap.Int64("candidate_id", candidateID),
		zap.String("document_id", doc.ID),
		zap.String("name", name),
	)
	s.trail.Record(audit.Event{
		CandidateID: candidateID,
		Action:      audit.ActionDocumentUploaded,
		Detail:      doc.ID,
	})
	return doc, nil
}

// Verify flips a document to verified. Verifying an already-verified
// document succeeds without a write.
func (s *Service) Verify(ctx context.Context, documentID string) (models.Document, error) {
	doc, err := s.docs.FindByID(ctx, documentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Document{}, apperrors.Newf(apperrors.CodeNotFound, "document %s not found", documentID)
	}
	if err != nil {
		return models.Document{}, apperrors.Wrap(apperrors.CodeInternal, "failed to load document", err)
	}
	if doc.Verified {
		return doc, nil
	}
	doc.Verified = true
	if err := s.docs.Save(ctx, doc); err != nil {
		return models.Document{}, apperrors.Wrap(apperrors.CodeInternal, "failed to save document", err)
	}
	s.logger.Info("document verified",
		zap.Int64("candidate_id", doc.CandidateID),
		zap.String("document_id", doc.ID),
	)
	s.metrics.RecordDocumentVerified()
	s.trail.Record(audit.Event{
		CandidateID: doc.CandidateID,
		Action:      audit.ActionDocumentVerified,
		Detail:      doc.ID,
	})
	return doc, nil
}

// IsFullyVerified reports whether the candidate has at least one document
// and every one of them is verified. An empty set is never fully verified.
// Reads go straight to the store, so the answer reflects committed state at
// call time.
func (s *Service) IsFullyVerified(ctx context.Context, candidateID int64) (bool, error) {
	docs, err := s.docs.ListByCandidate(ctx, candidateID)
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeInternal, "failed to list documents", err)
	}
	if len(docs) == 0 {
		return false, nil
	}
	for _, d := range docs {
		if !d.Verified {
			return false, nil
		}
	}
	return true, nil
}
