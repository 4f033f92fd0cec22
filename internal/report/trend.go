package report

import "sika/internal/core"

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

type (
	Direction string

	// TrendData compares one metric across two aggregated periods. Values are
	// cents. PercentageChange is signed; the UI renders its absolute value and
	// conveys sign through Direction.
	TrendData struct {
		Value            int64     `json:"value"`
		Change           int64     `json:"change"`
		PercentageChange float64   `json:"percentageChange"`
		Direction        Direction `json:"direction"`
		IsPositive       bool      `json:"isPositive"`
	}

	// MonthTrends carries the three per-metric trends for one comparison of
	// adjacent monthly summaries.
	MonthTrends struct {
		Income   TrendData `json:"income"`
		Expenses TrendData `json:"expenses"`
		Balance  TrendData `json:"balance"`
	}
)

// CalculateTrend compares a current period value against the previous one.
//
// A previous value of zero reports 0% change rather than infinity. Polarity
// is metric-dependent: for income-like metrics rising is positive, for
// expense-like metrics falling is positive.
func CalculateTrend(current, previous int64, incomeMetric bool) TrendData {
	change := current - previous

	var pct float64
	if previous != 0 {
		abs := previous
		if abs < 0 {
			abs = -abs
		}
		pct = float64(change) / float64(abs) * 100
	}

	direction := DirectionNeutral
	switch {
	case change > 0:
		direction = DirectionUp
	case change < 0:
		direction = DirectionDown
	}

	positive := change >= 0
	if !incomeMetric {
		positive = change <= 0
	}

	return TrendData{
		Value:            current,
		Change:           change,
		PercentageChange: pct,
		Direction:        direction,
		IsPositive:       positive,
	}
}

// OverallTrends compares the two most recent entries of a newest-first
// summary list for income, expenses and balance. Returns nil when fewer than
// two summaries exist.
func OverallTrends(summaries []core.MonthlySummary) *MonthTrends {
	if len(summaries) < 2 {
		return nil
	}
	return compare(summaries[0], summaries[1])
}

// TrendsForMonth locates the (month, year) entry in a newest-first summary
// list and compares it against the immediately older entry. Returns nil if
// the target is absent or is the oldest entry.
func TrendsForMonth(summaries []core.MonthlySummary, month, year int) *MonthTrends {
	for i, s := range summaries {
		if s.Month == month && s.Year == year {
			if i+1 >= len(summaries) {
				return nil
			}
			return compare(s, summaries[i+1])
		}
	}
	return nil
}

func compare(current, previous core.MonthlySummary) *MonthTrends {
	return &MonthTrends{
		Income:   CalculateTrend(current.Income.Cents, previous.Income.Cents, true),
		Expenses: CalculateTrend(current.Expenses.Cents, previous.Expenses.Cents, false),
		Balance:  CalculateTrend(current.Balance.Cents, previous.Balance.Cents, true),
	}
}
