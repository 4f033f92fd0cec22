package report

import (
	"sort"
	"time"

	"sika/internal/core"
)

type (
	// CategorySpending is one ranked row of an expense breakdown. Amount is
	// cents; Percentage is the share of the whole window's expense total.
	CategorySpending struct {
		Category   string  `json:"category"`
		Amount     int64   `json:"amount"`
		Count      int     `json:"count"`
		Percentage float64 `json:"percentage"`
	}

	// MonthCategories is the per-month bucket of a breakdown: its own ranked
	// list plus the highest and lowest spend categories. Bottom is only set
	// when the month has at least two distinct categories.
	MonthCategories struct {
		Key        string             `json:"key"` // "{year}-{month}"
		Year       int                `json:"year"`
		Month      int                `json:"month"`
		Categories []CategorySpending `json:"categories"`
		Top        *CategorySpending  `json:"top,omitempty"`
		Bottom     *CategorySpending  `json:"bottom,omitempty"`
	}
)

// CategoryBreakdown groups expense transactions by exact category label
// within the inclusive [start, end] window and ranks them by amount
// descending. Equal amounts order alphabetically so the ranking is
// deterministic. Income rows are ignored.
func CategoryBreakdown(txs []core.Transaction, start, end core.Date) []CategorySpending {
	groups, order := groupByCategory(filterExpenses(txs, start, end))

	var total int64
	for _, g := range groups {
		total += g.Amount
	}

	out := make([]CategorySpending, 0, len(order))
	for _, cat := range order {
		g := groups[cat]
		if total > 0 {
			g.Percentage = float64(g.Amount) / float64(total) * 100
		}
		out = append(out, *g)
	}
	rankCategories(out)
	return out
}

// MonthlyCategoryBuckets buckets the same breakdown by "{year}-{month}" key,
// newest month first. Percentages use the grand total across the whole
// window, not the month's own total.
func MonthlyCategoryBuckets(txs []core.Transaction, start, end core.Date) []MonthCategories {
	expenses := filterExpenses(txs, start, end)

	var total int64
	for _, tx := range expenses {
		total += tx.Amount.Cents
	}

	byMonth := make(map[string][]core.Transaction)
	var keys []string
	for _, tx := range expenses {
		key := core.MonthKey(tx.Date.Year(), tx.Date.Month())
		if _, ok := byMonth[key]; !ok {
			keys = append(keys, key)
		}
		byMonth[key] = append(byMonth[key], tx)
	}

	buckets := make([]MonthCategories, 0, len(keys))
	for _, key := range keys {
		rows := byMonth[key]
		groups, order := groupByCategory(rows)
		cats := make([]CategorySpending, 0, len(order))
		for _, cat := range order {
			g := groups[cat]
			if total > 0 {
				g.Percentage = float64(g.Amount) / float64(total) * 100
			}
			cats = append(cats, *g)
		}
		rankCategories(cats)

		b := MonthCategories{
			Key:        key,
			Year:       rows[0].Date.Year(),
			Month:      rows[0].Date.Month(),
			Categories: cats,
		}
		if len(cats) > 0 {
			top := cats[0]
			b.Top = &top
		}
		if len(cats) >= 2 {
			bottom := cats[len(cats)-1]
			b.Bottom = &bottom
		}
		buckets = append(buckets, b)
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].Year != buckets[j].Year {
			return buckets[i].Year > buckets[j].Year
		}
		return buckets[i].Month > buckets[j].Month
	})
	return buckets
}

// TopCategoryForMonth returns the highest-spend expense category of one
// calendar month, or nil when the month has no expenses.
func TopCategoryForMonth(txs []core.Transaction, year, month int) *CategorySpending {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	cats := CategoryBreakdown(txs, core.Date{Time: first}, core.Date{Time: last})
	if len(cats) == 0 {
		return nil
	}
	top := cats[0]
	return &top
}

func filterExpenses(txs []core.Transaction, start, end core.Date) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		if !start.IsZero() && tx.Date.Before(start.Time) {
			continue
		}
		if !end.IsZero() && tx.Date.After(end.Time) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func groupByCategory(txs []core.Transaction) (map[string]*CategorySpending, []string) {
	groups := make(map[string]*CategorySpending)
	var order []string
	for _, tx := range txs {
		g, ok := groups[tx.Category]
		if !ok {
			g = &CategorySpending{Category: tx.Category}
			groups[tx.Category] = g
			order = append(order, tx.Category)
		}
		g.Amount += tx.Amount.Cents
		g.Count++
	}
	return groups, order
}

func rankCategories(cats []CategorySpending) {
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].Amount != cats[j].Amount {
			return cats[i].Amount > cats[j].Amount
		}
		return cats[i].Category < cats[j].Category
	})
}
