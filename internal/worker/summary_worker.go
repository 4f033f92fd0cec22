// Package worker holds the queue consumers: summary recalculation on change
// events and outbound mail dispatch.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"sika/internal/amqp"
	"sika/internal/cache"
	"sika/internal/log"
	"sika/internal/storage"
)

// SummaryWorker recomputes monthly summaries from change events. The API
// already recalculates in-request; replaying the event here covers crashes
// between the write and the recalc, and keeps other instances' caches
// honest.
type SummaryWorker struct {
	storage   *storage.SQLiteRepository
	responses *cache.ResponseCache
	logger    *log.Logger

	processed atomic.Int64
	failed    atomic.Int64
}

func NewSummaryWorker(store *storage.SQLiteRepository, responses *cache.ResponseCache, logger *log.Logger) *SummaryWorker {
	return &SummaryWorker{
		storage:   store,
		responses: responses,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleTransactionChanged recalculates the affected month. Errors are
// returned so the consume loop requeues the message.
func (w *SummaryWorker) HandleTransactionChanged(ctx context.Context, msg *amqp.TransactionChangedMessage) error {
	summary, err := w.storage.RecalculateSummary(ctx, msg.OwnerID, msg.Year, msg.Month)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("recalculate summary: %w", err)
	}

	w.responses.InvalidateOwner(ctx, msg.OwnerID)
	w.processed.Add(1)

	w.logger.InfoContext(ctx, "Summary recalculated",
		log.FieldOwner, msg.OwnerID,
		"year", msg.Year,
		"month", msg.Month,
		"transaction_count", summary.TransactionCount)
	return nil
}

// Stats returns processed and failed event counts.
func (w *SummaryWorker) Stats() (processed, failed int64) {
	return w.processed.Load(), w.failed.Load()
}
