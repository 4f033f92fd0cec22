package services

import (
	"context"
	"fmt"

	"sika/internal/amqp"
	"sika/internal/cache"
	"sika/internal/core"
	"sika/internal/log"
	"sika/internal/report"
	"sika/internal/storage"
)

// TransactionService orchestrates transaction mutations: the SQLite write,
// the synchronous summary recalculation for every affected month, the change
// event for downstream consumers, and cache invalidation.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	responses  *cache.ResponseCache
	logger     *log.Logger
}

func NewTransactionService(store *storage.SQLiteRepository, amqpClient *amqp.Client, responses *cache.ResponseCache, logger *log.Logger) *TransactionService {
	return &TransactionService{
		storage:    store,
		amqpClient: amqpClient,
		responses:  responses,
		logger:     logger.WithComponent(log.ComponentReport),
	}
}

func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.storage.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.afterMutation(ctx, created.OwnerID, created.Date.Year(), created.Date.Month())
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	existing, err := s.storage.GetTransaction(ctx, tx.OwnerID, tx.ID)
	if err != nil {
		return err
	}

	if err := s.storage.UpdateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.afterMutation(ctx, tx.OwnerID, tx.Date.Year(), tx.Date.Month())

	// A date edit can move the transaction across a month boundary; the old
	// month's summary must shrink as well.
	oldYear, oldMonth := existing.Date.Year(), existing.Date.Month()
	if oldYear != tx.Date.Year() || oldMonth != tx.Date.Month() {
		s.afterMutation(ctx, tx.OwnerID, oldYear, oldMonth)
	}
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	existing, err := s.storage.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteTransaction(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.afterMutation(ctx, ownerID, existing.Date.Year(), existing.Date.Month())
	return nil
}

// DeleteAll wipes an owner's transactions and summaries in one shot. No
// recalculation is needed because the storage layer clears the summaries too.
func (s *TransactionService) DeleteAll(ctx context.Context, ownerID string) (int64, error) {
	deleted, err := s.storage.DeleteAllTransactions(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete all transactions: %w", err)
	}

	if s.responses != nil {
		s.responses.InvalidateOwner(ctx, ownerID)
	}
	s.logger.InfoContext(ctx, "Deleted all transactions", log.FieldOwner, ownerID, "count", deleted)
	return deleted, nil
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, ownerID, id)
}

func (s *TransactionService) List(ctx context.Context, ownerID string, start, end core.Date) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, ownerID, start, end)
}

// Summaries lists the owner's stored monthly summaries, newest first, through
// the shared response cache when one is configured.
func (s *TransactionService) Summaries(ctx context.Context, ownerID string) ([]core.MonthlySummary, error) {
	key := cache.SummariesKey(ownerID)

	var cached []core.MonthlySummary
	if s.responses.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	summaries, err := s.storage.ListSummaries(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	s.responses.SetJSON(ctx, key, summaries)
	return summaries, nil
}

// Categories ranks the owner's expense categories within the inclusive
// window, through the shared response cache; the cache key carries the
// window boundaries so distinct windows never collide.
func (s *TransactionService) Categories(ctx context.Context, ownerID string, start, end core.Date) ([]report.CategorySpending, error) {
	key := cache.CategoriesKey(ownerID, windowKeyPart(start), windowKeyPart(end))

	var cached []report.CategorySpending
	if s.responses.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	txs, err := s.storage.ListTransactions(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}

	breakdown := report.CategoryBreakdown(txs, core.Date{}, core.Date{})
	s.responses.SetJSON(ctx, key, breakdown)
	return breakdown, nil
}

// Trends compares the owner's two newest monthly summaries, through the
// shared response cache. Returns nil with no error when fewer than two
// summaries exist.
func (s *TransactionService) Trends(ctx context.Context, ownerID string) (*report.MonthTrends, error) {
	key := cache.TrendsKey(ownerID)

	var cached *report.MonthTrends
	if s.responses.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	summaries, err := s.storage.ListSummaries(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	trends := report.OverallTrends(summaries)
	s.responses.SetJSON(ctx, key, trends)
	return trends, nil
}

func windowKeyPart(d core.Date) string {
	if d.IsZero() {
		return "all"
	}
	return d.String()
}

// afterMutation recalculates the affected month's summary, invalidates the
// owner's cached responses, and publishes the change event. Publish failures
// are logged but never fail the request; the local write already succeeded.
func (s *TransactionService) afterMutation(ctx context.Context, ownerID string, year, month int) {
	if _, err := s.storage.RecalculateSummary(ctx, ownerID, year, month); err != nil {
		s.logger.ErrorContext(ctx, "Failed to recalculate summary",
			log.FieldOwner, ownerID, "year", year, "month", month, log.FieldError, err.Error())
	}

	s.responses.InvalidateOwner(ctx, ownerID)

	if s.amqpClient == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping change event")
		return
	}
	if err := s.amqpClient.PublishTransactionChanged(ctx, ownerID, year, month); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change event",
			log.FieldOwner, ownerID, "year", year, "month", month, log.FieldError, err.Error())
	}
}

// Close releases the storage, broker, and cache connections.
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if err := s.responses.Close(); err != nil {
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}
	return nil
}
