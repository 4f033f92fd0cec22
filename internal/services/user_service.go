package services

import (
	"context"
	"fmt"

	"sika/internal/amqp"
	"sika/internal/core"
	"sika/internal/log"
	"sika/internal/storage"
)

// UserService registers users on first sight and queues their welcome email.
type UserService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	logger     *log.Logger
}

func NewUserService(store *storage.SQLiteRepository, amqpClient *amqp.Client, logger *log.Logger) *UserService {
	return &UserService{
		storage:    store,
		amqpClient: amqpClient,
		logger:     logger.WithComponent(log.ComponentApp),
	}
}

// Ensure records the identity if it is new. A freshly created user gets a
// welcome mail job; a failure to enqueue it is logged and dropped.
func (s *UserService) Ensure(ctx context.Context, id, email, name string) error {
	created, err := s.storage.EnsureUser(ctx, id, email, name)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	if !created {
		return nil
	}

	s.logger.InfoContext(ctx, "Registered new user", log.FieldOwner, id)

	if s.amqpClient == nil {
		return nil
	}
	if err := s.amqpClient.PublishMailJob(ctx, amqp.MailWelcome, email, name, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to enqueue welcome mail",
			log.FieldOwner, id, log.FieldError, err.Error())
	}
	return nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.storage.ListUsers(ctx)
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (core.User, error) {
	return s.storage.GetUserByEmail(ctx, email)
}
