// Package models defines the candidate lifecycle entities and the two
// status state machines.
//
// Valid status graph:
//
//	APPLIED ──► INTERVIEWED ──► OFFER_EXTENDED ──► ONBOARDED
//	    │             │               │
//	    └─────────────┴───────────────┴──► REJECTED
//
// ONBOARDED and REJECTED are terminal states. Transitions move exactly one
// step forward; REJECTED is reachable from any non-terminal state.
package models

import (
	"strings"

	"candidate-onboarding/pkg/apperrors"
)

// Status values are stored as text in the candidates table.
type Status string

const (
	StatusApplied       Status = "APPLIED"
	StatusInterviewed   Status = "INTERVIEWED"
	StatusOfferExtended Status = "OFFER_EXTENDED"
	StatusRejected      Status = "REJECTED"
	StatusOnboarded     Status = "ONBOARDED"
)

// nextStatus lists the single forward step from each non-terminal state.
// REJECTED is handled separately: it is a legal target from every
// non-terminal state and has no outgoing transitions.
var nextStatus = map[Status]Status{
	StatusApplied:       StatusInterviewed,
	StatusInterviewed:   StatusOfferExtended,
	StatusOfferExtended: StatusOnboarded,
}

// ParseStatus converts free text to a Status, matching case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusApplied, StatusInterviewed, StatusOfferExtended, StatusRejected, StatusOnboarded:
		return st, nil
	}
	return "", apperrors.Newf(apperrors.CodeInvalidEnumValue, "unknown candidate status %q", s)
}

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusOnboarded
}

// CanTransitionTo reports whether moving from s to target is permitted.
// Same-state requests are the caller's concern (treated as no-ops upstream).
func (s Status) CanTransitionTo(target Status) bool {
	if target == StatusRejected {
		return s != StatusOnboarded && s != StatusRejected
	}
	return nextStatus[s] == target
}

// AtLeast reports whether s has reached stage in the forward ordering.
// REJECTED never satisfies a forward-stage check.
func (s Status) AtLeast(stage Status) bool {
	return statusRank[s] >= statusRank[stage] && s != StatusRejected
}

var statusRank = map[Status]int{
	StatusApplied:       0,
	StatusInterviewed:   1,
	StatusOfferExtended: 2,
	StatusOnboarded:     3,
}

type OnboardingStatus string

const (
	OnboardingNotStarted OnboardingStatus = "NOT_STARTED"
	OnboardingInProgress OnboardingStatus = "IN_PROGRESS"
	OnboardingCompleted  OnboardingStatus = "COMPLETED"
)

var onboardingRank = map[OnboardingStatus]int{
	OnboardingNotStarted: 0,
	OnboardingInProgress: 1,
	OnboardingCompleted:  2,
}

// ParseOnboardingStatus converts free text to an OnboardingStatus,
// matching case-insensitively.
func ParseOnboardingStatus(s string) (OnboardingStatus, error) {
	st := OnboardingStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case OnboardingNotStarted, OnboardingInProgress, OnboardingCompleted:
		return st, nil
	}
	return "", apperrors.Newf(apperrors.CodeInvalidEnumValue, "unknown onboarding status %q", s)
}

// CanTransitionTo reports whether moving from o to target is permitted:
// forward only, no regression. Skipping IN_PROGRESS is allowed; completion
// is separately gated on document verification upstream.
func (o OnboardingStatus) CanTransitionTo(target OnboardingStatus) bool {
	return onboardingRank[target] > onboardingRank[o]
}
