package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense record. Direction is carried
	// by Type; Amount is always positive.
	Transaction struct {
		ID        string
		OwnerID   string
		Amount    Money
		Type      TransactionType
		Category  string
		Note      string
		Date      Date
		CreatedAt time.Time
	}

	// MonthlySummary is the materialized aggregate over one
	// (owner, month, year) key.
	MonthlySummary struct {
		ID               string
		OwnerID          string
		Month            int // 1-12
		Year             int
		Income           Money
		Expenses         Money
		Balance          Money
		TransactionCount int
	}

	User struct {
		ID        string
		Email     string
		Name      string
		CreatedAt time.Time
	}

	BlogPost struct {
		ID        string
		OwnerID   string
		Title     string
		Slug      string
		Content   string
		Published bool
		CreatedAt time.Time
	}

	Comment struct {
		ID        string
		PostID    string
		OwnerID   string
		Body      string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyOwner    = errors.New("empty owner")
	ErrNotFound      = errors.New("not found")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrEmptyTitle    = errors.New("empty title")
	ErrEmptySlug     = errors.New("empty slug")
	ErrEmptyBody     = errors.New("empty body")
	ErrTooLong       = errors.New("too long")
	ErrBadBalance    = errors.New("balance must equal income minus expenses")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a calendar date. Time of day is always midnight UTC since
// transactions carry no time component.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Category) > 100 {
		return fmt.Errorf("category %w (max 100 characters)", ErrTooLong)
	}
	if len(t.Note) > 500 {
		return fmt.Errorf("note %w (max 500 characters)", ErrTooLong)
	}
	return nil
}

func (s MonthlySummary) Validate() error {
	if strings.TrimSpace(s.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if s.Month < 1 || s.Month > 12 {
		return ErrInvalidMonth
	}
	if s.Balance.Cents != s.Income.Cents-s.Expenses.Cents {
		return ErrBadBalance
	}
	return nil
}

func (p BlogPost) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if len(p.Title) > 200 {
		return fmt.Errorf("title %w (max 200 characters)", ErrTooLong)
	}
	if strings.TrimSpace(p.Slug) == "" {
		return ErrEmptySlug
	}
	return nil
}

func (c Comment) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(c.Body) == "" {
		return ErrEmptyBody
	}
	if len(c.Body) > 1000 {
		return fmt.Errorf("comment %w (max 1000 characters)", ErrTooLong)
	}
	return nil
}

// MonthKey renders the "{year}-{month}" bucket key shared between the
// category engine and the client-state flags.
func MonthKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}
