// Package report computes the derived views the dashboard is built from:
// monthly summaries, category breakdowns, trends and the monthly recap.
// Everything here is pure arithmetic over already-fetched rows; fetching and
// failure handling stay with the callers.
package report

import (
	"sort"
	"time"

	"sika/internal/core"
)

// TrailingMonths is the minimum number of calendar months the summary view
// always shows, zero-filled when no data exists.
const TrailingMonths = 3

// FilterWindow keeps summaries whose first-of-month date falls inside the
// inclusive [start, end] window. A zero boundary leaves that side open.
func FilterWindow(summaries []core.MonthlySummary, start, end core.Date) []core.MonthlySummary {
	out := make([]core.MonthlySummary, 0, len(summaries))
	for _, s := range summaries {
		first := time.Date(s.Year, time.Month(s.Month), 1, 0, 0, 0, 0, time.UTC)
		if !start.IsZero() && first.Before(start.Time) {
			continue
		}
		if !end.IsZero() && first.After(end.Time) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// FillTrailingMonths left-merges synthetic zero rows for any of the trailing
// n calendar months (counted back from now, inclusive of the current month)
// missing from the set. The result is ordered newest-first and contains no
// duplicate (month, year) keys, so re-running the merge is a no-op.
func FillTrailingMonths(summaries []core.MonthlySummary, owner string, now time.Time, n int) []core.MonthlySummary {
	seen := make(map[string]bool, len(summaries))
	merged := make([]core.MonthlySummary, 0, len(summaries)+n)
	for _, s := range summaries {
		key := core.MonthKey(s.Year, s.Month)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, s)
	}

	first := startOfMonth(now)
	for i := 0; i < n; i++ {
		m := first.AddDate(0, -i, 0)
		key := core.MonthKey(m.Year(), int(m.Month()))
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, core.MonthlySummary{
			OwnerID: owner,
			Month:   int(m.Month()),
			Year:    m.Year(),
		})
	}

	sortNewestFirst(merged)
	return merged
}

func sortNewestFirst(summaries []core.MonthlySummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Year != summaries[j].Year {
			return summaries[i].Year > summaries[j].Year
		}
		return summaries[i].Month > summaries[j].Month
	})
}

// SummarizeTransactions reconstructs monthly summaries from raw transaction
// rows, newest month first. Used when no persisted aggregate is available.
func SummarizeTransactions(txs []core.Transaction) []core.MonthlySummary {
	byKey := make(map[string]*core.MonthlySummary)
	var order []string
	for _, tx := range txs {
		key := core.MonthKey(tx.Date.Year(), tx.Date.Month())
		s, ok := byKey[key]
		if !ok {
			s = &core.MonthlySummary{
				OwnerID: tx.OwnerID,
				Month:   tx.Date.Month(),
				Year:    tx.Date.Year(),
			}
			byKey[key] = s
			order = append(order, key)
		}
		switch tx.Type {
		case core.Income:
			s.Income.Cents += tx.Amount.Cents
		case core.Expense:
			s.Expenses.Cents += tx.Amount.Cents
		}
		s.Balance.Cents = s.Income.Cents - s.Expenses.Cents
		s.TransactionCount++
	}

	out := make([]core.MonthlySummary, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sortNewestFirst(out)
	return out
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
