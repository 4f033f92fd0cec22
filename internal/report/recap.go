package report

import (
	"time"

	"sika/internal/core"
)

// Recap summarizes the calendar month that just ended: totals, how spending
// moved against the month before it, and where most of the money went.
type Recap struct {
	Key           string            `json:"key"` // "{year}-{month}" of the recapped month
	Year          int               `json:"year"`
	Month         int               `json:"month"`
	Income        int64             `json:"income"`
	Expenses      int64             `json:"expenses"`
	Saved         int64             `json:"saved"`
	SpendingTrend float64           `json:"spendingTrend"`
	TopCategory   *CategorySpending `json:"topCategory,omitempty"`
}

// NewMonthEligible reports whether the lightweight "new month" toast should
// fire: only when a previously stored month key exists and differs from the
// current one. A first-ever session (no stored key) never fires.
func NewMonthEligible(storedKey, currentKey string) bool {
	return storedKey != "" && storedKey != currentKey
}

// RecapEligible reports whether the monthly recap should be surfaced: the
// stored recap key must differ from the current month key (absent counts as
// different) and the preceding month must have had some activity.
func RecapEligible(storedKey, currentKey string, preceding *core.MonthlySummary) bool {
	if storedKey == currentKey {
		return false
	}
	if preceding == nil {
		return false
	}
	return preceding.Income.Cents != 0 || preceding.Expenses.Cents != 0
}

// BuildRecap assembles the recap for the month preceding now. The spending
// trend compares the preceding month's expenses against the month two periods
// back; with no two-back data it stays 0 rather than being omitted. Returns
// nil when the preceding month had no activity.
func BuildRecap(summaries []core.MonthlySummary, txs []core.Transaction, now time.Time) *Recap {
	prevMonth := startOfMonth(now).AddDate(0, -1, 0)
	year, month := prevMonth.Year(), int(prevMonth.Month())

	prev := FindSummary(summaries, month, year)
	if prev == nil || (prev.Income.Cents == 0 && prev.Expenses.Cents == 0) {
		return nil
	}

	recap := &Recap{
		Key:      core.MonthKey(year, month),
		Year:     year,
		Month:    month,
		Income:   prev.Income.Cents,
		Expenses: prev.Expenses.Cents,
		Saved:    prev.Income.Cents - prev.Expenses.Cents,
	}

	twoBack := prevMonth.AddDate(0, -1, 0)
	if s := FindSummary(summaries, int(twoBack.Month()), twoBack.Year()); s != nil {
		recap.SpendingTrend = CalculateTrend(prev.Expenses.Cents, s.Expenses.Cents, false).PercentageChange
	}

	recap.TopCategory = TopCategoryForMonth(txs, year, month)
	return recap
}

// FindSummary returns the summary for (month, year), or nil.
func FindSummary(summaries []core.MonthlySummary, month, year int) *core.MonthlySummary {
	for i := range summaries {
		if summaries[i].Month == month && summaries[i].Year == year {
			return &summaries[i]
		}
	}
	return nil
}
