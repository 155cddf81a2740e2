// Package notify delivers the one-time offer notification. The dispatcher
// guarantees at-most-one successful send per candidate per offer episode by
// funneling every attempt through an atomic claim store.
package notify

import "context"

// Message is the outbound mail shape handed to the transport.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer is the external transport primitive: send a message, report
// success or failure. Implementations must honor context cancellation.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// State of a dispatch claim.
type State string

const (
	StateNotSent State = ""
	StateSending State = "sending"
	StateSent    State = "sent"
)

// ClaimStore records dispatch progress per claim key. TryAcquire moves
// NOT_SENT to SENDING atomically relative to concurrent callers, so two
// dispatchers can never both pass the idempotency check and both send.
type ClaimStore interface {
	// TryAcquire attempts to take the claim. When acquired is false, state
	// reports whether a send is in flight or already recorded.
	TryAcquire(ctx context.Context, key string) (acquired bool, state State, err error)
	// MarkSent upgrades the claim to SENT. Called after transport success,
	// before the dispatcher reports success to its caller.
	MarkSent(ctx context.Context, key string) error
	// Release drops a SENDING claim after a failed send so a retry can
	// reclaim it.
	Release(ctx context.Context, key string) error
}
