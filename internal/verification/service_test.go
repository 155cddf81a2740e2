package verification

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"candidate-onboarding/internal/audit"
	"candidate-onboarding/internal/candidate/store"
	"candidate-onboarding/pkg/apperrors"
)

type recorderStub struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recorderStub) Record(event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

type VerificationSuite struct {
	suite.Suite
	docs    *store.InMemoryDocumentStore
	blobs   *InMemoryBlobStore
	trail   *recorderStub
	service *Service
	ctx     context.Context
}

func (s *VerificationSuite) SetupTest() {
	s.docs = store.NewInMemoryDocumentStore()
	s.blobs = NewInMemoryBlobStore()
	s.trail = &recorderStub{}
	s.service = NewService(s.docs, s.blobs, s.trail, zap.NewNop(), nil)
	s.ctx = context.Background()
}

func TestVerificationSuite(t *testing.T) {
	suite.Run(t, new(VerificationSuite))
}

func (s *VerificationSuite) TestUpload() {
	s.Run("stores the payload and records the locator", func() {
		payload := []byte("passport scan")
		doc, err := s.service.Upload(s.ctx, 1, "passport.pdf", payload)
		s.Require().NoError(err)

		s.NotEmpty(doc.ID)
		s.False(doc.Verified)
		s.EqualValues(1, doc.CandidateID)

		stored, ok := s.blobs.Fetch(s.ctx, doc.BlobLocator)
		s.Require().True(ok)
		s.Equal(payload, stored)
	})

	s.Run("rejects an empty name", func() {
		_, err := s.service.Upload(s.ctx, 1, "", []byte("x"))
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeBadRequest))
	})
}

func (s *VerificationSuite) TestVerify() {
	s.Run("flips the document to verified", func() {
		doc, err := s.service.Upload(s.ctx, 2, "visa.pdf", []byte("x"))
		s.Require().NoError(err)

		verified, err := s.service.Verify(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.True(verified.Verified)

		stored, err := s.docs.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.True(stored.Verified)
	})

	s.Run("verifying twice succeeds and stays verified", func() {
		doc, err := s.service.Upload(s.ctx, 2, "visa.pdf", []byte("x"))
		s.Require().NoError(err)

		_, err = s.service.Verify(s.ctx, doc.ID)
		s.Require().NoError(err)
		again, err := s.service.Verify(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.True(again.Verified)
	})

	s.Run("unknown document fails with not_found", func() {
		_, err := s.service.Verify(s.ctx, "nope")
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeNotFound))
	})
}

func (s *VerificationSuite) TestIsFullyVerified() {
	s.Run("empty document set is never fully verified", func() {
		verified, err := s.service.IsFullyVerified(s.ctx, 3)
		s.Require().NoError(err)
		s.False(verified)
	})

	s.Run("one unverified document blocks the set", func() {
		a, err := s.service.Upload(s.ctx, 4, "a.pdf", []byte("a"))
		s.Require().NoError(err)
		_, err = s.service.Upload(s.ctx, 4, "b.pdf", []byte("b"))
		s.Require().NoError(err)

		_, err = s.service.Verify(s.ctx, a.ID)
		s.Require().NoError(err)

		verified, err := s.service.IsFullyVerified(s.ctx, 4)
		s.Require().NoError(err)
		s.False(verified)
	})

	s.Run("all documents verified satisfies the gate", func() {
		a, err := s.service.Upload(s.ctx, 5, "a.pdf", []byte("a"))
		s.Require().NoError(err)
		b, err := s.service.Upload(s.ctx, 5, "b.pdf", []byte("b"))
		s.Require().NoError(err)

		_, err = s.service.Verify(s.ctx, a.ID)
		s.Require().NoError(err)
		_, err = s.service.Verify(s.ctx, b.ID)
		s.Require().NoError(err)

		verified, err := s.service.IsFullyVerified(s.ctx, 5)
		s.Require().NoError(err)
		s.True(verified)
	})

	s.Run("other candidates' documents do not count", func() {
		_, err := s.service.Upload(s.ctx, 7, "other.pdf", []byte("x"))
		s.Require().NoError(err)

		verified, err := s.service.IsFullyVerified(s.ctx, 6)
		s.Require().NoError(err)
		s.False(verified)
	})
}
