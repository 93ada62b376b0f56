package mailer

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of delivering them. Used when
// no broker is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "mail not delivered (no broker configured)",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
