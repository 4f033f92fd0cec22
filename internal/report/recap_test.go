package report

import (
	"testing"
	"time"

	"sika/internal/core"
)

func TestNewMonthEligible(t *testing.T) {
	cases := []struct {
		name    string
		stored  string
		current string
		want    bool
	}{
		{"first ever session", "", "2025-3", false},
		{"same month", "2025-3", "2025-3", false},
		{"month transition", "2025-2", "2025-3", true},
		{"year transition", "2024-12", "2025-1", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewMonthEligible(tc.stored, tc.current); got != tc.want {
				t.Fatalf("NewMonthEligible(%q, %q) = %v, want %v", tc.stored, tc.current, got, tc.want)
			}
		})
	}
}

func TestRecapEligible(t *testing.T) {
	active := summary(2025, 2, 50000, 30000)
	inactive := summary(2025, 2, 0, 0)

	if RecapEligible("2025-3", "2025-3", &active) {
		t.Fatal("already-acknowledged month must not fire")
	}
	if !RecapEligible("", "2025-3", &active) {
		t.Fatal("absent stored key counts as stale")
	}
	if !RecapEligible("2025-2", "2025-3", &active) {
		t.Fatal("stale key with active month must fire")
	}
	if RecapEligible("2025-2", "2025-3", &inactive) {
		t.Fatal("inactive preceding month must not fire")
	}
	if RecapEligible("2025-2", "2025-3", nil) {
		t.Fatal("missing preceding summary must not fire")
	}
}

func TestBuildRecap(t *testing.T) {
	now := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	sums := []core.MonthlySummary{
		summary(2025, 2, 50000, 30000),
		summary(2025, 1, 40000, 25000),
	}
	txs := []core.Transaction{
		expense("Food", 20000, core.NewDate(2025, 2, 10)),
		expense("Transport", 10000, core.NewDate(2025, 2, 20)),
	}

	recap := BuildRecap(sums, txs, now)
	if recap == nil {
		t.Fatal("expected recap")
	}
	if recap.Key != "2025-2" || recap.Year != 2025 || recap.Month != 2 {
		t.Fatalf("recap keyed wrong: %+v", recap)
	}
	if recap.Saved != 20000 {
		t.Fatalf("saved = %d", recap.Saved)
	}
	// (300 - 250) / 250 * 100 == 20
	if recap.SpendingTrend != 20 {
		t.Fatalf("spending trend = %v, want 20", recap.SpendingTrend)
	}
	if recap.TopCategory == nil || recap.TopCategory.Category != "Food" {
		t.Fatalf("top category = %+v", recap.TopCategory)
	}
}

func TestBuildRecapNoTwoBackData(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	sums := []core.MonthlySummary{summary(2025, 2, 50000, 30000)}

	recap := BuildRecap(sums, nil, now)
	if recap == nil {
		t.Fatal("expected recap")
	}
	if recap.SpendingTrend != 0 {
		t.Fatalf("spending trend should default to 0, got %v", recap.SpendingTrend)
	}
	if recap.TopCategory != nil {
		t.Fatalf("no transactions means no top category, got %+v", recap.TopCategory)
	}
}

func TestBuildRecapInactiveMonth(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	sums := []core.MonthlySummary{summary(2025, 2, 0, 0)}
	if recap := BuildRecap(sums, nil, now); recap != nil {
		t.Fatalf("inactive month must yield no recap, got %+v", recap)
	}
	if recap := BuildRecap(nil, nil, now); recap != nil {
		t.Fatalf("missing month must yield no recap, got %+v", recap)
	}
}

func TestBuildRecapYearBoundary(t *testing.T) {
	now := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	sums := []core.MonthlySummary{
		summary(2024, 12, 10000, 5000),
		summary(2024, 11, 10000, 4000),
	}
	recap := BuildRecap(sums, nil, now)
	if recap == nil || recap.Year != 2024 || recap.Month != 12 {
		t.Fatalf("recap = %+v", recap)
	}
	if recap.SpendingTrend != 25 {
		t.Fatalf("spending trend = %v, want 25", recap.SpendingTrend)
	}
}
