package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"sika/internal/amqp"
	"sika/internal/core"
	"sika/internal/log"
	"sika/internal/mail"
	"sika/internal/report"
	"sika/internal/storage"
)

// MailWorker turns queued mail jobs into rendered, delivered messages.
type MailWorker struct {
	storage *storage.SQLiteRepository
	sender  mail.Sender
	logger  *log.Logger

	sent   atomic.Int64
	failed atomic.Int64
}

func NewMailWorker(store *storage.SQLiteRepository, sender mail.Sender, logger *log.Logger) *MailWorker {
	return &MailWorker{
		storage: store,
		sender:  sender,
		logger:  logger.WithComponent(log.ComponentMail),
	}
}

// HandleMailJob renders and sends one message. Unknown kinds are dropped
// rather than requeued; delivery failures are returned for requeue.
func (w *MailWorker) HandleMailJob(ctx context.Context, msg *amqp.MailJobMessage) error {
	var rendered mail.Message
	switch msg.Kind {
	case amqp.MailWelcome:
		rendered = mail.Welcome(msg.Recipient, msg.Name)
	case amqp.MailHoliday:
		rendered = mail.Holiday(msg.Recipient, msg.Name)
	case amqp.MailWeeklySummary:
		stats, err := w.currentMonthStats(ctx, msg.OwnerID)
		if err != nil {
			w.failed.Add(1)
			return fmt.Errorf("weekly stats for %s: %w", msg.OwnerID, err)
		}
		rendered = mail.WeeklySummary(msg.Recipient, msg.Name, stats)
	default:
		w.logger.WarnContext(ctx, "Dropping mail job of unknown kind",
			log.FieldMailKind, msg.Kind, log.FieldRecipient, msg.Recipient)
		return nil
	}

	if err := w.sender.Send(ctx, rendered); err != nil {
		w.failed.Add(1)
		return fmt.Errorf("send %s mail: %w", msg.Kind, err)
	}

	w.sent.Add(1)
	w.logger.InfoContext(ctx, "Mail sent",
		log.FieldMailKind, msg.Kind, log.FieldRecipient, msg.Recipient)
	return nil
}

// currentMonthStats assembles the weekly summary figures for the month in
// progress. A month without activity renders as zeros.
func (w *MailWorker) currentMonthStats(ctx context.Context, ownerID string) (mail.WeeklyStats, error) {
	now := time.Now()
	stats := mail.WeeklyStats{Year: now.Year(), Month: int(now.Month())}

	summaries, err := w.storage.ListSummaries(ctx, ownerID)
	if err != nil {
		return mail.WeeklyStats{}, err
	}
	if current := report.FindSummary(summaries, stats.Month, stats.Year); current != nil {
		stats.Income = current.Income.Cents
		stats.Expenses = current.Expenses.Cents
		stats.Balance = current.Balance.Cents
		stats.TransactionCount = current.TransactionCount
	}

	start := core.NewDate(stats.Year, stats.Month, 1)
	txs, err := w.storage.ListTransactions(ctx, ownerID, start, core.Date{})
	if err != nil {
		return mail.WeeklyStats{}, err
	}
	if top := report.TopCategoryForMonth(txs, stats.Year, stats.Month); top != nil {
		stats.TopCategory = top.Category
	}

	return stats, nil
}

// Stats returns sent and failed mail counts.
func (w *MailWorker) Stats() (sent, failed int64) {
	return w.sent.Load(), w.failed.Load()
}
