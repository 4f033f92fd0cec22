package mail

import (
	"context"

	"sika/internal/log"
)

// LogSender writes messages to the log instead of delivering them. It is the
// default backend for development and test environments.
type LogSender struct {
	logger *log.Logger
}

func NewLogSender(logger *log.Logger) *LogSender {
	return &LogSender{logger: logger.WithComponent(log.ComponentMail)}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "Mail delivery (log backend)",
		log.FieldRecipient, msg.To,
		"subject", msg.Subject,
		"body_bytes", len(msg.Body))
	return nil
}
