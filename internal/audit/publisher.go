package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sink receives emitted events for delivery outside the process (Kafka).
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher captures structured workflow events. Appends to the store are
// authoritative; sink delivery is best-effort so an event-bus outage never
// blocks candidate operations.
type Publisher struct {
	store  Store
	sink   Sink
	logger *zap.Logger
}

func NewPublisher(store Store, sink Sink, logger *zap.Logger) *Publisher {
	return &Publisher{store: store, sink: sink, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.sink != nil {
		if err := p.sink.Publish(ctx, event); err != nil {
			p.logger.Warn("event sink publish failed",
				zap.String("action", event.Action),
				zap.Int64("candidate_id", event.CandidateID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, candidateID int64) ([]Event, error) {
	return p.store.ListByCandidate(ctx, candidateID)
}

// Trail is the non-blocking front the workflow facade records to. Events are
// buffered to a channel the Worker drains; when the buffer is full the event
// is dropped rather than stalling a request.
type Trail struct {
	inbox  chan Event
	logger *zap.Logger
}

func NewTrail(buffer int, logger *zap.Logger) *Trail {
	return &Trail{inbox: make(chan Event, buffer), logger: logger}
}

func (t *Trail) Record(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case t.inbox <- event:
	default:
		t.logger.Warn("event trail buffer full, dropping event",
			zap.String("action", event.Action),
			zap.Int64("candidate_id", event.CandidateID),
		)
	}
}

func (t *Trail) Events() <-chan Event {
	return t.inbox
}
