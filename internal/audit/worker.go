package audit

import (
	"context"

	"go.uber.org/zap"
)

// Worker consumes trail events from a channel and hands them to the
// publisher. It keeps background processing off the request path.
type Worker struct {
	publisher *Publisher
	inbox     <-chan Event
	logger    *zap.Logger
}

func NewWorker(publisher *Publisher, inbox <-chan Event, logger *zap.Logger) *Worker {
	return &Worker{publisher: publisher, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is canceled. Emit failures are
// logged and skipped; the trail is observability, not a ledger.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.publisher.Emit(ctx, event); err != nil {
				w.logger.Warn("failed to persist workflow event",
					zap.String("action", event.Action),
					zap.Int64("candidate_id", event.CandidateID),
					zap.Error(err),
				)
			}
		}
	}
}
