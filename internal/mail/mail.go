package mail

import (
	"context"
	"fmt"

	"sika/internal/config"
	"sika/internal/log"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages through a configured backend.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Backend identifies a mail delivery backend.
type Backend string

const (
	LogBackend   Backend = "log"
	GmailBackend Backend = "gmail"
)

// IsValid returns true if the backend is one we know how to build.
func (b Backend) IsValid() bool {
	switch b {
	case LogBackend, GmailBackend:
		return true
	default:
		return false
	}
}

// New builds a Sender from the application config. The log backend is the
// default and needs no credentials; the gmail backend requires OAuth client
// and token material.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (Sender, error) {
	backend := Backend(cfg.MailBackend)
	if !backend.IsValid() {
		return nil, fmt.Errorf("invalid mail backend: %s", cfg.MailBackend)
	}

	switch backend {
	case GmailBackend:
		sender, err := NewGmailSender(ctx, GmailConfig{
			From:       cfg.MailFrom,
			ClientFile: cfg.GmailOAuthClientFile,
			ClientJSON: cfg.GmailOAuthClientJSON,
			TokenFile:  cfg.GmailOAuthTokenFile,
			TokenJSON:  cfg.GmailOAuthTokenJSON,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gmail sender: %w", err)
		}
		logger.Info("Initialized gmail mail backend", "from", cfg.MailFrom)
		return sender, nil
	default:
		logger.Info("Initialized log mail backend")
		return NewLogSender(logger), nil
	}
}
