package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer writes messages to the log instead of sending them. Default for
// local development where SES credentials are absent.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("mail (log transport)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
