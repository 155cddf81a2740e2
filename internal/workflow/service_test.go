package workflow

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"candidate-onboarding/internal/audit"
	"candidate-onboarding/internal/candidate/models"
	"candidate-onboarding/internal/candidate/store"
	"candidate-onboarding/pkg/apperrors"
	"candidate-onboarding/pkg/platform/sentinel"
)

// fakeGate answers the document check from canned state.
type fakeGate struct {
	verified bool
	err      error
}

func (g *fakeGate) IsFullyVerified(context.Context, int64) (bool, error) {
	return g.verified, g.err
}

// fakeNotifier records dispatches and can fail a configurable number of
// leading attempts.
type fakeNotifier struct {
	mu        sync.Mutex
	calls     int
	failFirst int
	failWith  error
}

func (n *fakeNotifier) Dispatch(_ context.Context, _ models.Candidate) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.calls <= n.failFirst {
		return n.failWith
	}
	return nil
}

func (n *fakeNotifier) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

// recorderStub collects trail events synchronously.
type recorderStub struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recorderStub) Record(event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorderStub) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

// conflictingStore fails every conditional write with a version conflict.
type conflictingStore struct {
	store.CandidateStore
}

func (s *conflictingStore) Update(context.Context, models.Candidate) (models.Candidate, error) {
	return models.Candidate{}, sentinel.ErrVersionConflict
}

type WorkflowSuite struct {
	suite.Suite
	candidates *store.InMemoryCandidateStore
	bank       *store.InMemoryBankInfoStore
	education  *store.InMemoryEducationStore
	gate       *fakeGate
	notifier   *fakeNotifier
	trail      *recorderStub
	service    *Service
	ctx        context.Context
}

func (s *WorkflowSuite) SetupTest() {
	s.candidates = store.NewInMemoryCandidateStore()
	s.bank = store.NewInMemoryBankInfoStore()
	s.education = store.NewInMemoryEducationStore()
	s.gate = &fakeGate{}
	s.notifier = &fakeNotifier{}
	s.trail = &recorderStub{}
	s.service = NewService(s.candidates, s.bank, s.education, s.gate, s.notifier, s.trail, zap.NewNop(), nil)
	s.ctx = context.Background()
}

// SetupSubTest clears the notifier's recorded calls and failure config so
// each subtest's call-count expectations start from zero. The service keeps
// the pointer handed to it in SetupTest, so fields are reset in place.
func (s *WorkflowSuite) SetupSubTest() {
	s.notifier.mu.Lock()
	s.notifier.calls = 0
	s.notifier.failFirst = 0
	s.notifier.failWith = nil
	s.notifier.mu.Unlock()
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) seedCandidate(status models.Status, onboarding models.OnboardingStatus) models.Candidate {
	created, err := s.candidates.Create(s.ctx, models.Candidate{
		FirstName:        "Asha",
		LastName:         "Rao",
		Email:            "asha@example.com",
		Phone:            "555-0100",
		Status:           models.StatusApplied,
		OnboardingStatus: models.OnboardingNotStarted,
	})
	s.Require().NoError(err)
	if status != models.StatusApplied || onboarding != models.OnboardingNotStarted {
		created.Status = status
		created.OnboardingStatus = onboarding
		created, err = s.candidates.Update(s.ctx, created)
		s.Require().NoError(err)
	}
	return created
}

// TestHiringPipeline walks a single candidate through the full happy path,
// checking the gate and the one-time offer notification along the way.
func (s *WorkflowSuite) TestHiringPipeline() {
	created := s.seedCandidate(models.StatusApplied, models.OnboardingNotStarted)
	id := created.ID

	updated, err := s.service.TransitionStatus(s.ctx, id, "INTERVIEWED")
	s.Require().NoError(err)
	s.Equal(models.StatusInterviewed, updated.Status)
	s.Equal(0, s.notifier.callCount())

	updated, err = s.service.TransitionStatus(s.ctx, id, "OFFER_EXTENDED")
	s.Require().NoError(err)
	s.Equal(models.StatusOfferExtended, updated.Status)
	s.Equal(1, s.notifier.callCount())

	// Same-state request is a no-op: no write, no second dispatch.
	again, err := s.service.TransitionStatus(s.ctx, id, "OFFER_EXTENDED")
	s.Require().NoError(err)
	s.Equal(updated.Version, again.Version)
	s.Equal(1, s.notifier.callCount())

	_, err = s.service.TransitionOnboardingStatus(s.ctx, id, "IN_PROGRESS")
	s.Require().NoError(err)

	// Completion is blocked until every document is verified.
	_, err = s.service.TransitionOnboardingStatus(s.ctx, id, "COMPLETED")
	s.Require().Error(err)
	s.True(apperrors.Is(err, apperrors.CodeDocumentsNotVerified))

	s.gate.verified = true
	done, err := s.service.TransitionOnboardingStatus(s.ctx, id, "COMPLETED")
	s.Require().NoError(err)
	s.Equal(models.OnboardingCompleted, done.OnboardingStatus)

	final, err := s.service.TransitionStatus(s.ctx, id, "ONBOARDED")
	s.Require().NoError(err)
	s.Equal(models.StatusOnboarded, final.Status)

	s.Contains(s.trail.actions(), audit.ActionStatusTransition)
	s.Contains(s.trail.actions(), audit.ActionOnboardingTransition)
}

func (s *WorkflowSuite) TestTransitionStatusValidation() {
	s.Run("unknown status fails before touching the record", func() {
		created := s.seedCandidate(models.StatusApplied, models.OnboardingNotStarted)

		_, err := s.service.TransitionStatus(s.ctx, created.ID, "bogus")
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeInvalidEnumValue))

		stored, err := s.candidates.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created.Version, stored.Version)
	})

	s.Run("unknown candidate fails with not_found", func() {
		_, err := s.service.TransitionStatus(s.ctx, 99, "INTERVIEWED")
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeNotFound))
	})

	s.Run("skipping a step is rejected", func() {
		created := s.seedCandidate(models.StatusApplied, models.OnboardingNotStarted)

		_, err := s.service.TransitionStatus(s.ctx, created.ID, "ONBOARDED")
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeIllegalTransition))
	})

	s.Run("rejection is reachable from any non-terminal state", func() {
		created := s.seedCandidate(models.StatusOfferExtended, models.OnboardingNotStarted)

		updated, err := s.service.TransitionStatus(s.ctx, created.ID, "REJECTED")
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, updated.Status)
	})

	s.Run("terminal states have no exits", func() {
		created := s.seedCandidate(models.StatusRejected, models.OnboardingNotStarted)

		_, err := s.service.TransitionStatus(s.ctx, created.ID, "APPLIED")
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeIllegalTransition))
	})
}

func (s *WorkflowSuite) TestTransitionOnboardingValidation() {
	s.Run("requires the offer stage first", func() {
		created := s.seedCandidate(models.StatusApplied, models.OnboardingNotStarted)

		_, err := s.service.TransitionOnboardingStatus(s.ctx, created.ID, "IN_PROGRESS")
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeOnboardingNotEligible))
	})

	s.Run("rejected candidates are never eligible", func() {
		created := s.seedCandidate(models.StatusRejected, models.OnboardingNotStarted)

		_, err := s.service.TransitionOnboardingStatus(s.ctx, created.ID, "IN_PROGRESS")
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeOnboardingNotEligible))
	})

	s.Run("same state is a no-op", func() {
		created := s.seedCandidate(models.StatusOfferExtended, models.OnboardingInProgress)

		got, err := s.service.TransitionOnboardingStatus(s.ctx, created.ID, "IN_PROGRESS")
		s.Require().NoError(err)
		s.Equal(created.Version, got.Version)
	})

	s.Run("gate runs before step legality for completion", func() {
		created := s.seedCandidate(models.StatusOfferExtended, models.OnboardingNotStarted)

		_, err := s.service.TransitionOnboardingStatus(s.ctx, created.ID, "COMPLETED")
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeDocumentsNotVerified))
	})

	s.Run("verified documents allow completing straight from not started", func() {
		created := s.seedCandidate(models.StatusOfferExtended, models.OnboardingNotStarted)
		s.gate.verified = true

		got, err := s.service.TransitionOnboardingStatus(s.ctx, created.ID, "COMPLETED")
		s.Require().NoError(err)
		s.Equal(models.OnboardingCompleted, got.OnboardingStatus)
	})

	s.Run("regression is rejected", func() {
		created := s.seedCandidate(models.StatusOfferExtended, models.OnboardingInProgress)

		_, err := s.service.TransitionOnboardingStatus(s.ctx, created.ID, "NOT_STARTED")
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeIllegalTransition))
	})
}

// TestConcurrentTransitionsSingleWrite verifies that racing identical
// transitions produce exactly one version bump; losers re-read and land on
// the no-op path.
func (s *WorkflowSuite) TestConcurrentTransitionsSingleWrite() {
	created := s.seedCandidate(models.StatusApplied, models.OnboardingNotStarted)

	const racers = 8
	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.TransitionStatus(s.ctx, created.ID, "INTERVIEWED")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}
	stored, err := s.candidates.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusInterviewed, stored.Status)
	s.Equal(created.Version+1, stored.Version)
}

func (s *WorkflowSuite) TestPersistentConflictSurfaces() {
	created := s.seedCandidate(models.StatusApplied, models.OnboardingNotStarted)

	service := NewService(&conflictingStore{s.candidates}, s.bank, s.education,
		s.gate, s.notifier, s.trail, zap.NewNop(), nil)

	_, err := service.TransitionStatus(s.ctx, created.ID, "INTERVIEWED")
	s.Require().Error(err)
	s.True(apperrors.Is(err, apperrors.CodeConcurrentModification))
	s.True(apperrors.IsTransient(err))
}

func (s *WorkflowSuite) TestOfferDispatchPolicy() {
	s.Run("delivery failure does not roll back the transition", func() {
		created := s.seedCandidate(models.StatusInterviewed, models.OnboardingNotStarted)
		s.notifier.failFirst = 99
		s.notifier.failWith = apperrors.New(apperrors.CodeDispatchFailed, "transport down")

		updated, err := s.service.TransitionStatus(s.ctx, created.ID, "OFFER_EXTENDED")
		s.Require().NoError(err)
		s.Equal(models.StatusOfferExtended, updated.Status)
	})

	s.Run("transient failures are retried up to the budget", func() {
		created := s.seedCandidate(models.StatusOfferExtended, models.OnboardingNotStarted)
		s.notifier.failFirst = 2
		s.notifier.failWith = apperrors.Transient(apperrors.CodeDispatchFailed, "transport flaky", nil)

		err := s.service.SendOfferNotification(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(3, s.notifier.callCount())
	})

	s.Run("non-transient failure is not retried", func() {
		created := s.seedCandidate(models.StatusOfferExtended, models.OnboardingNotStarted)
		s.notifier.failFirst = 99
		s.notifier.failWith = apperrors.New(apperrors.CodeInternal, "claim recording broken")

		err := s.service.SendOfferNotification(s.ctx, created.ID)
		s.Require().Error(err)
		s.Equal(1, s.notifier.callCount())
	})

	s.Run("explicit send requires the offer stage", func() {
		created := s.seedCandidate(models.StatusApplied, models.OnboardingNotStarted)

		err := s.service.SendOfferNotification(s.ctx, created.ID)
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeIllegalTransition))
		s.Equal(0, s.notifier.callCount())
	})
}

func (s *WorkflowSuite) TestProfileUpdates() {
	s.Run("personal info rewrite bumps the version", func() {
		created := s.seedCandidate(models.StatusApplied, models.OnboardingNotStarted)

		updated, err := s.service.UpdatePersonalInfo(s.ctx, created.ID, PersonalInfo{
			FirstName: "Asha",
			LastName:  "Menon",
			Email:     "asha.menon@example.com",
			Phone:     "555-0101",
		})
		s.Require().NoError(err)
		s.Equal("Menon", updated.LastName)
		s.Equal(created.Version+1, updated.Version)
	})

	s.Run("bank info update requires an existing record", func() {
		created := s.seedCandidate(models.StatusApplied, models.OnboardingNotStarted)

		_, err := s.service.UpdateBankInfo(s.ctx, created.ID, BankDetails{BankName: "First National"})
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeNotFound))

		s.Require().NoError(s.bank.Save(s.ctx, models.BankInfo{
			CandidateID:   created.ID,
			BankName:      "First National",
			AccountNumber: "12345",
			IFSCCode:      "FN0001",
		}))

		record, err := s.service.UpdateBankInfo(s.ctx, created.ID, BankDetails{
			BankName:      "Second National",
			AccountNumber: "67890",
			IFSCCode:      "SN0002",
		})
		s.Require().NoError(err)
		s.Equal("Second National", record.BankName)
	})

	s.Run("education update requires an existing record", func() {
		created := s.seedCandidate(models.StatusApplied, models.OnboardingNotStarted)

		_, err := s.service.UpdateEducationInfo(s.ctx, created.ID, EducationDetails{HighestDegree: "BSc"})
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeNotFound))

		s.Require().NoError(s.education.Save(s.ctx, models.Education{
			CandidateID: created.ID,
			Degree:      "BSc",
			Institution: "State University",
			PassingYear: 2021,
		}))

		record, err := s.service.UpdateEducationInfo(s.ctx, created.ID, EducationDetails{
			HighestDegree:    "MSc",
			University:       "State University",
			YearOfGraduation: 2023,
		})
		s.Require().NoError(err)
		s.Equal("MSc", record.Degree)
	})

	s.Run("updates against unknown candidates fail with not_found", func() {
		_, err := s.service.UpdatePersonalInfo(s.ctx, 404, PersonalInfo{})
		s.True(apperrors.Is(err, apperrors.CodeNotFound))

		_, err = s.service.UpdateBankInfo(s.ctx, 404, BankDetails{})
		s.True(apperrors.Is(err, apperrors.CodeNotFound))

		_, err = s.service.UpdateEducationInfo(s.ctx, 404, EducationDetails{})
		s.True(apperrors.Is(err, apperrors.CodeNotFound))
	})
}

func (s *WorkflowSuite) TestQueries() {
	s.seedCandidate(models.StatusApplied, models.OnboardingNotStarted)
	onboarded := s.seedCandidate(models.StatusOnboarded, models.OnboardingCompleted)

	s.Run("list returns every candidate", func() {
		list, err := s.service.ListCandidates(s.ctx)
		s.Require().NoError(err)
		s.Len(list, 2)
	})

	s.Run("list by status filters and validates the name", func() {
		list, err := s.service.ListByStatus(s.ctx, "onboarded")
		s.Require().NoError(err)
		s.Len(list, 1)
		s.Equal(onboarded.ID, list[0].ID)

		_, err = s.service.ListByStatus(s.ctx, "hired")
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeInvalidEnumValue))
	})

	s.Run("count covers all statuses", func() {
		count, err := s.service.CountCandidates(s.ctx)
		s.Require().NoError(err)
		s.EqualValues(2, count)
	})
}
