package report

import (
	"testing"

	"sika/internal/core"
)

func TestCalculateTrend(t *testing.T) {
	cases := []struct {
		name         string
		current      int64
		previous     int64
		incomeMetric bool
		change       int64
		pct          float64
		direction    Direction
		positive     bool
	}{
		{"income rising", 110, 100, true, 10, 10, DirectionUp, true},
		{"income falling", 90, 100, true, -10, -10, DirectionDown, false},
		{"expense rising", 110, 100, false, 10, 10, DirectionUp, false},
		{"expense falling", 90, 100, false, -10, -10, DirectionDown, true},
		{"flat income", 100, 100, true, 0, 0, DirectionNeutral, true},
		{"flat expense", 100, 100, false, 0, 0, DirectionNeutral, true},
		{"zero previous", 500, 0, true, 500, 0, DirectionUp, true},
		{"zero previous expense", 500, 0, false, 500, 0, DirectionUp, false},
		{"negative previous balance", 50, -100, true, 150, 150, DirectionUp, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateTrend(tc.current, tc.previous, tc.incomeMetric)
			if got.Value != tc.current {
				t.Fatalf("Value = %d, want %d", got.Value, tc.current)
			}
			if got.Change != tc.change {
				t.Fatalf("Change = %d, want %d", got.Change, tc.change)
			}
			if got.PercentageChange != tc.pct {
				t.Fatalf("PercentageChange = %v, want %v", got.PercentageChange, tc.pct)
			}
			if got.Direction != tc.direction {
				t.Fatalf("Direction = %q, want %q", got.Direction, tc.direction)
			}
			if got.IsPositive != tc.positive {
				t.Fatalf("IsPositive = %v, want %v", got.IsPositive, tc.positive)
			}
		})
	}
}

func summary(year, month int, income, expenses int64) core.MonthlySummary {
	return core.MonthlySummary{
		OwnerID:  "user-1",
		Year:     year,
		Month:    month,
		Income:   core.Money{Cents: income},
		Expenses: core.Money{Cents: expenses},
		Balance:  core.Money{Cents: income - expenses},
	}
}

func TestOverallTrends(t *testing.T) {
	if got := OverallTrends(nil); got != nil {
		t.Fatal("expected nil for empty list")
	}
	if got := OverallTrends([]core.MonthlySummary{summary(2025, 3, 100, 50)}); got != nil {
		t.Fatal("expected nil for a single summary")
	}

	trends := OverallTrends([]core.MonthlySummary{
		summary(2025, 3, 1100, 400),
		summary(2025, 2, 1000, 500),
	})
	if trends == nil {
		t.Fatal("expected trends")
	}
	if trends.Income.PercentageChange != 10 || !trends.Income.IsPositive {
		t.Fatalf("income trend = %+v", trends.Income)
	}
	if trends.Expenses.PercentageChange != -20 || !trends.Expenses.IsPositive {
		t.Fatalf("expenses trend = %+v", trends.Expenses)
	}
	if trends.Balance.Change != 200 || trends.Balance.Direction != DirectionUp {
		t.Fatalf("balance trend = %+v", trends.Balance)
	}
}

func TestTrendsForMonth(t *testing.T) {
	sums := []core.MonthlySummary{
		summary(2025, 3, 300, 100),
		summary(2025, 2, 200, 100),
		summary(2025, 1, 100, 100),
	}

	trends := TrendsForMonth(sums, 2, 2025)
	if trends == nil {
		t.Fatal("expected trends for feb")
	}
	if trends.Income.Change != 100 {
		t.Fatalf("income change = %d", trends.Income.Change)
	}

	if got := TrendsForMonth(sums, 1, 2025); got != nil {
		t.Fatal("oldest entry has nothing to compare against")
	}
	if got := TrendsForMonth(sums, 7, 2024); got != nil {
		t.Fatal("missing entry should yield nil")
	}
}
