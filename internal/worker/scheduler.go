package worker

import (
	"context"
	"time"

	"sika/internal/amqp"
	"sika/internal/log"
	"sika/internal/storage"
)

// Scheduler enqueues a weekly-summary mail job for every user on a fixed
// interval.
type Scheduler struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	interval   time.Duration
	batchSize  int
	logger     *log.Logger
}

func NewScheduler(store *storage.SQLiteRepository, amqpClient *amqp.Client, interval time.Duration, batchSize int, logger *log.Logger) *Scheduler {
	return &Scheduler{
		storage:    store,
		amqpClient: amqpClient,
		interval:   interval,
		batchSize:  batchSize,
		logger:     logger.WithComponent(log.ComponentWorker),
	}
}

// Run ticks until the context is cancelled. The first enqueue happens after
// one full interval, not at startup, so restarts don't re-mail everyone.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.enqueueWeeklySummaries(ctx)
		}
	}
}

func (s *Scheduler) enqueueWeeklySummaries(ctx context.Context) {
	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list users for weekly summaries", log.FieldError, err.Error())
		return
	}

	queued := 0
	for i, user := range users {
		if err := s.amqpClient.PublishMailJob(ctx, amqp.MailWeeklySummary, user.Email, user.Name, user.ID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to enqueue weekly summary",
				log.FieldRecipient, user.Email, log.FieldError, err.Error())
			continue
		}
		queued++

		// Brief pause between batches to avoid flooding the broker.
		if s.batchSize > 0 && (i+1)%s.batchSize == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}

	s.logger.InfoContext(ctx, "Weekly summaries enqueued", "queued", queued, "users", len(users))
}
