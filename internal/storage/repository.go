// Package storage persists the service's entities in SQLite. All SQL lives
// here behind typed repository methods; nothing above this layer builds
// queries from table names.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"sika/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction inserts a new transaction, filling ID and CreatedAt.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = uuid.NewString()
	tx.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, amount_cents, type, category, note, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.OwnerID, tx.Amount.Cents, string(tx.Type), tx.Category, tx.Note,
		tx.Date.String(), tx.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"owner_id", tx.OwnerID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category)

	return tx, nil
}

// GetTransaction fetches one transaction scoped to its owner.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, amount_cents, type, category, note, date, created_at
		FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// UpdateTransaction rewrites the mutable fields of an owned transaction.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = ?, type = ?, category = ?, note = ?, date = ?
		WHERE id = ? AND owner_id = ?`,
		tx.Amount.Cents, string(tx.Type), tx.Category, tx.Note, tx.Date.String(),
		tx.ID, tx.OwnerID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes one owned transaction.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteAllTransactions removes every transaction an owner has, returning the
// number of deleted rows.
func (r *SQLiteRepository) DeleteAllTransactions(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete all transactions: %w", err)
	}
	n, _ := res.RowsAffected()

	// All per-month aggregates are stale now; drop them wholesale.
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM monthly_summaries WHERE owner_id = ?`, ownerID); err != nil {
		return n, fmt.Errorf("clear summaries: %w", err)
	}

	slog.InfoContext(ctx, "All transactions deleted", "owner_id", ownerID, "count", n)
	return n, nil
}

// ListTransactions returns an owner's transactions newest-first, optionally
// restricted to the inclusive [start, end] calendar window.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string, start, end core.Date) ([]core.Transaction, error) {
	query := `
		SELECT id, owner_id, amount_cents, type, category, note, date, created_at
		FROM transactions WHERE owner_id = ?`
	args := []any{ownerID}
	if !start.IsZero() {
		query += ` AND date >= ?`
		args = append(args, start.String())
	}
	if !end.IsZero() {
		query += ` AND date <= ?`
		args = append(args, end.String())
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// RecalculateSummary recomputes the (owner, year, month) aggregate from raw
// transaction rows and upserts it. Months left with no transactions lose
// their row; consumers synthesize zero placeholders instead.
func (r *SQLiteRepository) RecalculateSummary(ctx context.Context, ownerID string, year, month int) (core.MonthlySummary, error) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	var income, expenses int64
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0),
			COUNT(*)
		FROM transactions
		WHERE owner_id = ? AND date >= ? AND date <= ?`,
		ownerID, first.Format("2006-01-02"), last.Format("2006-01-02"),
	).Scan(&income, &expenses, &count)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("aggregate month: %w", err)
	}

	summary := core.MonthlySummary{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		Month:            month,
		Year:             year,
		Income:           core.Money{Cents: income},
		Expenses:         core.Money{Cents: expenses},
		Balance:          core.Money{Cents: income - expenses},
		TransactionCount: count,
	}

	if count == 0 {
		_, err := r.db.ExecContext(ctx, `
			DELETE FROM monthly_summaries
			WHERE owner_id = ? AND year = ? AND month = ?`, ownerID, year, month)
		if err != nil {
			return core.MonthlySummary{}, fmt.Errorf("drop empty summary: %w", err)
		}
		return summary, nil
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO monthly_summaries
			(id, owner_id, month, year, income_cents, expenses_cents, balance_cents, transaction_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, year, month) DO UPDATE SET
			income_cents = excluded.income_cents,
			expenses_cents = excluded.expenses_cents,
			balance_cents = excluded.balance_cents,
			transaction_count = excluded.transaction_count`,
		summary.ID, ownerID, month, year, income, expenses, income-expenses, count)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("upsert summary: %w", err)
	}

	slog.InfoContext(ctx, "Monthly summary recalculated",
		"owner_id", ownerID,
		"year", year,
		"month", month,
		"income_cents", income,
		"expenses_cents", expenses,
		"transaction_count", count)

	return summary, nil
}

// ListSummaries returns an owner's stored summaries newest-first.
func (r *SQLiteRepository) ListSummaries(ctx context.Context, ownerID string) ([]core.MonthlySummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, month, year, income_cents, expenses_cents, balance_cents, transaction_count
		FROM monthly_summaries
		WHERE owner_id = ?
		ORDER BY year DESC, month DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlySummary
	for rows.Next() {
		var s core.MonthlySummary
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Month, &s.Year,
			&s.Income.Cents, &s.Expenses.Cents, &s.Balance.Cents, &s.TransactionCount); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var tx core.Transaction
	var txType, date, createdAt string
	if err := row.Scan(&tx.ID, &tx.OwnerID, &tx.Amount.Cents, &txType,
		&tx.Category, &tx.Note, &date, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(txType)

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	tx.Date = d

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		tx.CreatedAt = t
	}
	return tx, nil
}
