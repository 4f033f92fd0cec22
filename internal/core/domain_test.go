package core

import (
	"errors"
	"strings"
	"testing"
)

func validTransaction() Transaction {
	return Transaction{
		OwnerID:  "user-1",
		Amount:   Money{Cents: 1234},
		Type:     Expense,
		Category: "Food",
		Note:     "lunch",
		Date:     NewDate(2025, 1, 15),
	}
}

func TestTransactionValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"valid", func(tx *Transaction) {}, nil},
		{"empty owner", func(tx *Transaction) { tx.OwnerID = "  " }, ErrEmptyOwner},
		{"zero amount", func(tx *Transaction) { tx.Amount.Cents = 0 }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount.Cents = -5 }, ErrInvalidAmount},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{"category too long", func(tx *Transaction) { tx.Category = strings.Repeat("x", 101) }, ErrTooLong},
		{"note too long", func(tx *Transaction) { tx.Note = strings.Repeat("x", 501) }, ErrTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mutate(&tx)
			err := tx.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestMonthlySummaryValidate(t *testing.T) {
	s := MonthlySummary{
		OwnerID:  "user-1",
		Month:    3,
		Year:     2025,
		Income:   Money{Cents: 50000},
		Expenses: Money{Cents: 30000},
		Balance:  Money{Cents: 20000},
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("valid summary rejected: %v", err)
	}

	s.Balance.Cents = 19999
	if err := s.Validate(); !errors.Is(err, ErrBadBalance) {
		t.Fatalf("got %v, want ErrBadBalance", err)
	}

	s.Balance.Cents = 20000
	s.Month = 13
	if err := s.Validate(); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("got %v, want ErrInvalidMonth", err)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Year() != 2025 || d.Month() != 1 || d.Day() != 15 {
		t.Fatalf("unexpected date: %v", d)
	}
	if d.String() != "2025-01-15" {
		t.Fatalf("String() = %q", d.String())
	}

	if _, err := ParseDate("15/01/2025"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestMonthKey(t *testing.T) {
	if got := MonthKey(2025, 3); got != "2025-3" {
		t.Fatalf("MonthKey = %q", got)
	}
}
