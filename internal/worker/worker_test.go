package worker

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sika/internal/amqp"
	"sika/internal/core"
	"sika/internal/log"
	"sika/internal/mail"
	"sika/internal/storage"
)

type captureSender struct {
	messages []mail.Message
	fail     bool
}

func (s *captureSender) Send(ctx context.Context, msg mail.Message) error {
	if s.fail {
		return errors.New("smtp down")
	}
	s.messages = append(s.messages, msg)
	return nil
}

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "sika.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

func TestSummaryWorkerRecalculates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateTransaction(ctx, core.Transaction{
		OwnerID:  "u1",
		Type:     core.Expense,
		Category: "Food",
		Amount:   core.Money{Cents: 2500},
		Date:     core.NewDate(2025, 3, 10),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	w := NewSummaryWorker(repo, nil, testLogger())
	msg := amqp.NewTransactionChangedMessage("u1", 2025, 3)
	if err := w.HandleTransactionChanged(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	summaries, err := repo.ListSummaries(ctx, "u1")
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Expenses.Cents != 2500 {
		t.Fatalf("summaries = %+v", summaries)
	}

	processed, failed := w.Stats()
	if processed != 1 || failed != 0 {
		t.Fatalf("stats = %d processed, %d failed", processed, failed)
	}
}

func TestMailWorkerWelcome(t *testing.T) {
	sender := &captureSender{}
	w := NewMailWorker(newTestRepo(t), sender, testLogger())

	msg := amqp.NewMailJobMessage(amqp.MailWelcome, "ama@example.com", "Ama", "u1")
	if err := w.HandleMailJob(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(sender.messages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.messages))
	}
	if sender.messages[0].To != "ama@example.com" {
		t.Fatalf("To = %q", sender.messages[0].To)
	}
}

func TestMailWorkerWeeklySummaryUsesCurrentMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	_, err := repo.CreateTransaction(ctx, core.Transaction{
		OwnerID:  "u1",
		Type:     core.Expense,
		Category: "Food",
		Amount:   core.Money{Cents: 7500},
		Date:     core.NewDate(now.Year(), int(now.Month()), 1),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if _, err := repo.RecalculateSummary(ctx, "u1", now.Year(), int(now.Month())); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	sender := &captureSender{}
	w := NewMailWorker(repo, sender, testLogger())

	msg := amqp.NewMailJobMessage(amqp.MailWeeklySummary, "u1@example.com", "Kofi", "u1")
	if err := w.HandleMailJob(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	body := sender.messages[0].Body
	if !strings.Contains(body, "₵75.00") {
		t.Fatalf("body missing expenses figure:\n%s", body)
	}
	if !strings.Contains(body, "Top category: Food") {
		t.Fatalf("body missing top category:\n%s", body)
	}
}

func TestMailWorkerUnknownKindIsDropped(t *testing.T) {
	sender := &captureSender{}
	w := NewMailWorker(newTestRepo(t), sender, testLogger())

	msg := amqp.NewMailJobMessage("carrier-pigeon", "x@example.com", "", "u1")
	if err := w.HandleMailJob(context.Background(), msg); err != nil {
		t.Fatalf("unknown kind should be dropped, got %v", err)
	}
	if len(sender.messages) != 0 {
		t.Fatal("unknown kind should not send")
	}
}

func TestMailWorkerDeliveryFailureRequeues(t *testing.T) {
	sender := &captureSender{fail: true}
	w := NewMailWorker(newTestRepo(t), sender, testLogger())

	msg := amqp.NewMailJobMessage(amqp.MailWelcome, "x@example.com", "", "u1")
	if err := w.HandleMailJob(context.Background(), msg); err == nil {
		t.Fatal("expected delivery error to propagate")
	}

	_, failed := w.Stats()
	if failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
}
