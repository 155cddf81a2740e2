package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"candidate-onboarding/internal/audit"
	"candidate-onboarding/internal/candidate/models"
	"candidate-onboarding/internal/platform/metrics"
	"candidate-onboarding/pkg/apperrors"
)

// Offer mail content is fixed; only the recipient varies.
const (
	offerSubject = "Congratulations! You have a Job Offer 🎉"
	offerBody    = "Dear Candidate,\n\nYou have been selected. Please login to view your offer letter.\n\nRegards,\nTeam"
)

// Recorder receives workflow events for the audit trail.
type Recorder interface {
	Record(event audit.Event)
}

// Dispatcher sends the offer notification at most once per candidate per
// offer episode. The claim protocol:
//
//	NOT_SENT ──TryAcquire──► SENDING ──transport ok──► SENT (terminal)
//	                            │
//	                            └──transport failed──► NOT_SENT (Release)
//
// The successful send is recorded (MarkSent) before Dispatch returns, so a
// retried request observes the idempotency guard. Dispatch itself never
// retries; that policy belongs to the caller.
type Dispatcher struct {
	claims  ClaimStore
	mailer  Mailer
	timeout time.Duration
	trail   Recorder
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(claims ClaimStore, mailer Mailer, timeout time.Duration, trail Recorder, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{claims: claims, mailer: mailer, timeout: timeout, trail: trail, logger: logger, metrics: m}
}

func claimKey(candidateID int64) string {
	return fmt.Sprintf("offer-notice:%d", candidateID)
}

// Dispatch sends the offer notification to the candidate's current email.
// Returns nil immediately when a prior successful dispatch is recorded.
// Failures are transient (retryable by the caller); the caller bounds the
// attempt count.
func (d *Dispatcher) Dispatch(ctx context.Context, candidate models.Candidate) error {
	key := claimKey(candidate.ID)

	acquired, state, err := d.claims.TryAcquire(ctx, key)
	if err != nil {
		return apperrors.Transient(apperrors.CodeDispatchFailed, "claim store unavailable", err)
	}
	if !acquired {
		if state == StateSent {
			d.logger.Debug("offer notice already sent", zap.Int64("candidate_id", candidate.ID))
			return nil
		}
		return apperrors.Transient(apperrors.CodeDispatchFailed, "offer notice dispatch already in flight", nil)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	sendErr := d.mailer.Send(sendCtx, Message{
		To:      candidate.Email,
		Subject: offerSubject,
		Body:    offerBody,
	})
	if sendErr != nil {
		if releaseErr := d.claims.Release(ctx, key); releaseErr != nil {
			d.logger.Error("failed to release dispatch claim after send failure",
				zap.Int64("candidate_id", candidate.ID),
				zap.Error(releaseErr),
			)
		}
		d.metrics.RecordNotificationFailed()
		d.trail.Record(audit.Event{
			CandidateID: candidate.ID,
			Action:      audit.ActionOfferNoticeFailed,
			Detail:      sendErr.Error(),
		})
		return apperrors.Transient(apperrors.CodeDispatchFailed, "offer notice transport failed", sendErr)
	}

	if err := d.claims.MarkSent(ctx, key); err != nil {
		// The mail went out but the sent-record write failed. Surface the
		// error; the SENDING claim still blocks a duplicate send until it
		// is resolved.
		d.logger.Error("offer notice sent but claim not recorded",
			zap.Int64("candidate_id", candidate.ID),
			zap.Error(err),
		)
		return apperrors.Wrap(apperrors.CodeInternal, "offer notice sent but not recorded", err)
	}

	d.logger.Info("offer notice sent",
		zap.Int64("candidate_id", candidate.ID),
		zap.String("to", candidate.Email),
	)
	d.metrics.RecordNotificationSent()
	d.trail.Record(audit.Event{
		CandidateID: candidate.ID,
		Action:      audit.ActionOfferNoticeSent,
	})
	return nil
}
