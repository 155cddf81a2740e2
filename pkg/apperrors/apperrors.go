// Package apperrors defines the domain error vocabulary for the onboarding
// engine. Every failure a service can return carries a Code the transport
// layer maps to an HTTP status, so handlers branch on codes instead of
// string-matching error text.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of domain failure.
type Code string

const (
	CodeNotFound               Code = "not_found"
	CodeInvalidEnumValue       Code = "invalid_enum_value"
	CodeBadRequest             Code = "bad_request"
	CodeIllegalTransition      Code = "illegal_transition"
	CodeOnboardingNotEligible  Code = "onboarding_not_eligible"
	CodeDocumentsNotVerified   Code = "documents_not_verified"
	CodeConcurrentModification Code = "concurrent_modification"
	CodeDispatchFailed         Code = "dispatch_failed"
	CodeInternal               Code = "internal"
)

// Error is a code-tagged domain error. Transient reports whether the caller
// may retry the same operation (dispatch transport hiccups, lost optimistic
// writes); precondition violations are never transient.
type Error struct {
	Code      Code
	Message   string
	Transient bool
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a domain error with the given code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause so the store-level error stays inspectable via
// errors.Is while callers branch on the domain code.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Transient marks an error as retryable by the caller.
func Transient(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Transient: true, cause: cause}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the domain code from err, defaulting to CodeInternal for
// untagged errors so nothing leaks as a 200.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsTransient reports whether the caller may usefully retry.
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Transient
	}
	return false
}

// ToHTTPStatus centralizes the code to status mapping used by the transport
// layer's error envelope.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidEnumValue, CodeBadRequest:
		return http.StatusBadRequest
	case CodeIllegalTransition, CodeOnboardingNotEligible, CodeDocumentsNotVerified:
		return http.StatusConflict
	case CodeConcurrentModification:
		return http.StatusConflict
	case CodeDispatchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
