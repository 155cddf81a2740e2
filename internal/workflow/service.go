// Package workflow is the engine's single entry point. The service owns the
// candidate lifecycle state machine, consults the document gate before
// onboarding completion, and triggers the offer notification dispatcher on
// entry into OFFER_EXTENDED.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"candidate-onboarding/internal/audit"
	"candidate-onboarding/internal/candidate/models"
	"candidate-onboarding/internal/candidate/store"
	"candidate-onboarding/internal/platform/metrics"
	"candidate-onboarding/pkg/apperrors"
	"candidate-onboarding/pkg/platform/sentinel"
)

// DocumentGate answers whether a candidate's document set is fully verified.
type DocumentGate interface {
	IsFullyVerified(ctx context.Context, candidateID int64) (bool, error)
}

// OfferNotifier dispatches the one-time offer notification.
type OfferNotifier interface {
	Dispatch(ctx context.Context, candidate models.Candidate) error
}

// Recorder receives workflow events for the audit trail.
type Recorder interface {
	Record(event audit.Event)
}

const (
	// maxWriteAttempts bounds the read-validate-write retries on a lost
	// optimistic write before ConcurrentModification surfaces.
	maxWriteAttempts = 3
	// maxDispatchAttempts bounds transient notification retries before the
	// failure is surfaced as terminal.
	maxDispatchAttempts = 3
	dispatchBackoff     = 200 * time.Millisecond
)

// Service composes the state machine, the gate, and the dispatcher.
type Service struct {
	candidates store.CandidateStore
	bank       store.BankInfoStore
	education  store.EducationStore
	gate       DocumentGate
	notifier   OfferNotifier
	trail      Recorder
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func NewService(
	candidates store.CandidateStore,
	bank store.BankInfoStore,
	education store.EducationStore,
	gate DocumentGate,
	notifier OfferNotifier,
	trail Recorder,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		candidates: candidates,
		bank:       bank,
		education:  education,
		gate:       gate,
		notifier:   notifier,
		trail:      trail,
		logger:     logger,
		metrics:    m,
	}
}

// TransitionStatus validates and applies a status transition. Same-state
// requests succeed without mutation. Entry into OFFER_EXTENDED triggers the
// offer notification once per transition.
func (s *Service) TransitionStatus(ctx context.Context, id int64, rawTarget string) (models.Candidate, error) {
	target, err := models.ParseStatus(rawTarget)
	if err != nil {
		return models.Candidate{}, err
	}

	var updated models.Candidate
	var from models.Status
	for attempt := 1; ; attempt++ {
		current, err := s.findCandidate(ctx, id)
		if err != nil {
			return models.Candidate{}, err
		}
		if current.Status == target {
			// Idempotent no-op: no write, no version bump, no dispatch.
			return current, nil
		}
		if !current.Status.CanTransitionTo(target) {
			s.metrics.RecordTransitionRejected("status", "illegal_transition")
			return models.Candidate{}, apperrors.Newf(apperrors.CodeIllegalTransition,
				"cannot transition candidate %d from %s to %s", id, current.Status, target)
		}
		from = current.Status
		next := current
		next.Status = target
		updated, err = s.candidates.Update(ctx, next)
		if err == nil {
			break
		}
		if retryErr := s.classifyWriteFailure(ctx, "transition_status", id, attempt, err); retryErr != nil {
			return models.Candidate{}, retryErr
		}
	}

	s.logger.Info("candidate status updated",
		zap.Int64("candidate_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)
	s.metrics.RecordTransitionApplied("status")
	s.trail.Record(audit.Event{
		CandidateID: id,
		Action:      audit.ActionStatusTransition,
		From:        string(from),
		To:          string(target),
	})

	if target == models.StatusOfferExtended {
		// The transition is committed; a delivery failure is logged for
		// manual follow-up and remains retryable through the explicit
		// send-offer-notification operation.
		if err := s.notifyWithRetry(ctx, updated); err != nil {
			s.logger.Error("offer notification delivery failed, manual follow-up required",
				zap.Int64("candidate_id", id),
				zap.Error(err),
			)
		}
	}
	return updated, nil
}

// TransitionOnboardingStatus validates and applies an onboarding-status
// transition. Completion is gated on the document set being fully verified.
func (s *Service) TransitionOnboardingStatus(ctx context.Context, id int64, rawTarget string) (models.Candidate, error) {
	target, err := models.ParseOnboardingStatus(rawTarget)
	if err != nil {
		return models.Candidate{}, err
	}

	var updated models.Candidate
	var from models.OnboardingStatus
	for attempt := 1; ; attempt++ {
		current, err := s.findCandidate(ctx, id)
		if err != nil {
			return models.Candidate{}, err
		}
		if !current.Status.AtLeast(models.StatusOfferExtended) {
			s.metrics.RecordTransitionRejected("onboarding", "not_eligible")
			return models.Candidate{}, apperrors.Newf(apperrors.CodeOnboardingNotEligible,
				"candidate %d has status %s, onboarding requires %s", id, current.Status, models.StatusOfferExtended)
		}
		if current.OnboardingStatus == target {
			return current, nil
		}
		if target == models.OnboardingCompleted {
			verified, err := s.gate.IsFullyVerified(ctx, id)
			if err != nil {
				return models.Candidate{}, err
			}
			if !verified {
				s.metrics.RecordTransitionRejected("onboarding", "documents_not_verified")
				return models.Candidate{}, apperrors.Newf(apperrors.CodeDocumentsNotVerified,
					"candidate %d cannot complete onboarding until every document is verified", id)
			}
		}
		if !current.OnboardingStatus.CanTransitionTo(target) {
			s.metrics.RecordTransitionRejected("onboarding", "illegal_transition")
			return models.Candidate{}, apperrors.Newf(apperrors.CodeIllegalTransition,
				"cannot transition candidate %d onboarding from %s to %s", id, current.OnboardingStatus, target)
		}
		from = current.OnboardingStatus
		next := current
		next.OnboardingStatus = target
		updated, err = s.candidates.Update(ctx, next)
		if err == nil {
			break
		}
		if retryErr := s.classifyWriteFailure(ctx, "transition_onboarding", id, attempt, err); retryErr != nil {
			return models.Candidate{}, retryErr
		}
	}

	s.logger.Info("candidate onboarding status updated",
		zap.Int64("candidate_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)
	s.metrics.RecordTransitionApplied("onboarding")
	s.trail.Record(audit.Event{
		CandidateID: id,
		Action:      audit.ActionOnboardingTransition,
		From:        string(from),
		To:          string(target),
	})
	return updated, nil
}

// PersonalInfo carries the mutable candidate attributes outside workflow
// invariants.
type PersonalInfo struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// UpdatePersonalInfo rewrites the candidate's personal fields under the
// same optimistic write discipline as transitions.
func (s *Service) UpdatePersonalInfo(ctx context.Context, id int64, info PersonalInfo) (models.Candidate, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.findCandidate(ctx, id)
		if err != nil {
			return models.Candidate{}, err
		}
		next := current
		next.FirstName = info.FirstName
		next.LastName = info.LastName
		next.Email = info.Email
		next.Phone = info.Phone
		updated, err := s.candidates.Update(ctx, next)
		if err == nil {
			s.logger.Info("candidate personal info updated", zap.Int64("candidate_id", id))
			return updated, nil
		}
		if retryErr := s.classifyWriteFailure(ctx, "update_personal_info", id, attempt, err); retryErr != nil {
			return models.Candidate{}, retryErr
		}
	}
}

// BankDetails carries a bank-info update.
type BankDetails struct {
	BankName      string
	AccountNumber string
	IFSCCode      string
}

// UpdateBankInfo rewrites an existing bank record; the engine never creates
// one implicitly.
func (s *Service) UpdateBankInfo(ctx context.Context, id int64, details BankDetails) (models.BankInfo, error) {
	if _, err := s.findCandidate(ctx, id); err != nil {
		return models.BankInfo{}, err
	}
	record, err := s.bank.FindByCandidate(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.BankInfo{}, apperrors.Newf(apperrors.CodeNotFound, "no bank info on file for candidate %d", id)
	}
	if err != nil {
		return models.BankInfo{}, apperrors.Wrap(apperrors.CodeInternal, "failed to load bank info", err)
	}
	record.BankName = details.BankName
	record.AccountNumber = details.AccountNumber
	record.IFSCCode = details.IFSCCode
	if err := s.bank.Save(ctx, record); err != nil {
		return models.BankInfo{}, apperrors.Wrap(apperrors.CodeInternal, "failed to save bank info", err)
	}
	s.logger.Info("candidate bank info updated", zap.Int64("candidate_id", id))
	return record, nil
}

// EducationDetails carries an education-info update.
type EducationDetails struct {
	HighestDegree    string
	University       string
	YearOfGraduation int
}

// UpdateEducationInfo rewrites an existing education record.
func (s *Service) UpdateEducationInfo(ctx context.Context, id int64, details EducationDetails) (models.Education, error) {
	if _, err := s.findCandidate(ctx, id); err != nil {
		return models.Education{}, err
	}
	record, err := s.education.FindByCandidate(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Education{}, apperrors.Newf(apperrors.CodeNotFound, "no education info on file for candidate %d", id)
	}
	if err != nil {
		return models.Education{}, apperrors.Wrap(apperrors.CodeInternal, "failed to load education info", err)
	}
	record.Degree = details.HighestDegree
	record.Institution = details.University
	record.PassingYear = details.YearOfGraduation
	if err := s.education.Save(ctx, record); err != nil {
		return models.Education{}, apperrors.Wrap(apperrors.CodeInternal, "failed to save education info", err)
	}
	s.logger.Info("candidate education info updated", zap.Int64("candidate_id", id))
	return record, nil
}

// SendOfferNotification is the explicit dispatch operation. It requires the
// candidate to have reached OFFER_EXTENDED and is idempotent per episode.
func (s *Service) SendOfferNotification(ctx context.Context, id int64) error {
	candidate, err := s.findCandidate(ctx, id)
	if err != nil {
		return err
	}
	if !candidate.Status.AtLeast(models.StatusOfferExtended) {
		return apperrors.Newf(apperrors.CodeIllegalTransition,
			"candidate %d has status %s, offer notification requires %s", id, candidate.Status, models.StatusOfferExtended)
	}
	return s.notifyWithRetry(ctx, candidate)
}

// GetCandidate returns the current record.
func (s *Service) GetCandidate(ctx context.Context, id int64) (models.Candidate, error) {
	return s.findCandidate(ctx, id)
}

// ListCandidates returns every candidate.
func (s *Service) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	list, err := s.candidates.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list candidates", err)
	}
	return list, nil
}

// ListByStatus parses the status name and filters.
func (s *Service) ListByStatus(ctx context.Context, rawStatus string) ([]models.Candidate, error) {
	status, err := models.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	list, err := s.candidates.ListByStatus(ctx, status)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list candidates", err)
	}
	return list, nil
}

// CountCandidates returns the total candidate count.
func (s *Service) CountCandidates(ctx context.Context) (int64, error) {
	count, err := s.candidates.Count(ctx)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, "failed to count candidates", err)
	}
	return count, nil
}

func (s *Service) findCandidate(ctx context.Context, id int64) (models.Candidate, error) {
	candidate, err := s.candidates.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Candidate{}, apperrors.Newf(apperrors.CodeNotFound, "candidate %d not found", id)
	}
	if err != nil {
		return models.Candidate{}, apperrors.Wrap(apperrors.CodeInternal, "failed to load candidate", err)
	}
	return candidate, nil
}

// classifyWriteFailure translates a store write error. A nil return tells
// the caller to retry the read-validate-write cycle; anything else is final.
func (s *Service) classifyWriteFailure(ctx context.Context, operation string, id int64, attempt int, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrVersionConflict):
		s.metrics.RecordVersionConflict(operation)
		if attempt >= maxWriteAttempts {
			return apperrors.Transient(apperrors.CodeConcurrentModification,
				fmt.Sprintf("candidate %d kept changing during %s, gave up after %d attempts", id, operation, attempt), err)
		}
		if ctx.Err() != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "request canceled", ctx.Err())
		}
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return apperrors.Newf(apperrors.CodeNotFound, "candidate %d not found", id)
	default:
		return apperrors.Wrap(apperrors.CodeInternal, "failed to update candidate", err)
	}
}

// notifyWithRetry drives the dispatcher through its bounded retry budget,
// backing off between transient failures. Exhausting the budget surfaces a
// non-transient dispatch failure.
func (s *Service) notifyWithRetry(ctx context.Context, candidate models.Candidate) error {
	var lastErr error
	for attempt := 1; attempt <= maxDispatchAttempts; attempt++ {
		lastErr = s.notifier.Dispatch(ctx, candidate)
		if lastErr == nil || !apperrors.IsTransient(lastErr) {
			return lastErr
		}
		if attempt < maxDispatchAttempts {
			select {
			case <-ctx.Done():
				return apperrors.Wrap(apperrors.CodeDispatchFailed, "request canceled during dispatch", ctx.Err())
			case <-time.After(dispatchBackoff):
			}
		}
	}
	return apperrors.Wrap(apperrors.CodeDispatchFailed,
		fmt.Sprintf("offer notice for candidate %d failed after %d attempts", candidate.ID, maxDispatchAttempts), lastErr)
}
