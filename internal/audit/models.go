package audit

import "time"

// Event is emitted from workflow logic to capture key candidate actions.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	CandidateID int64     `json:"candidateId"`
	Action      string    `json:"action"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to,omitempty"`
	Detail      string    `json:"detail,omitempty"`
}

// Actions recorded on the trail.
const (
	ActionStatusTransition     = "status_transition"
	ActionOnboardingTransition = "onboarding_transition"
	ActionDocumentUploaded     = "document_uploaded"
	ActionDocumentVerified     = "document_verified"
	ActionOfferNoticeSent      = "offer_notice_sent"
	ActionOfferNoticeFailed    = "offer_notice_failed"
)
