package mail

import (
	"fmt"
	"strings"
	"time"

	"sika/internal/core"
)

// WeeklyStats carries the figures rendered into a weekly summary email.
type WeeklyStats struct {
	Year             int
	Month            int
	Income           int64
	Expenses         int64
	Balance          int64
	TransactionCount int
	TopCategory      string
}

func Welcome(to, name string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", displayName(name))
	b.WriteString("Welcome to Sika! Your account is ready.\n\n")
	b.WriteString("Start by recording your income and expenses, and we'll keep\n")
	b.WriteString("your monthly summaries and spending trends up to date for you.\n\n")
	b.WriteString("Happy tracking,\nThe Sika team\n")
	return Message{
		To:      to,
		Subject: "Welcome to Sika",
		Body:    b.String(),
	}
}

func WeeklySummary(to, name string, stats WeeklyStats) Message {
	monthName := time.Month(stats.Month).String()

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", displayName(name))
	fmt.Fprintf(&b, "Here is where %s %d stands so far:\n\n", monthName, stats.Year)
	fmt.Fprintf(&b, "  Income:       %s\n", core.FormatCedis(stats.Income))
	fmt.Fprintf(&b, "  Expenses:     %s\n", core.FormatCedis(stats.Expenses))
	fmt.Fprintf(&b, "  Balance:      %s\n", core.FormatCedis(stats.Balance))
	fmt.Fprintf(&b, "  Transactions: %d\n", stats.TransactionCount)
	if stats.TopCategory != "" {
		fmt.Fprintf(&b, "  Top category: %s\n", stats.TopCategory)
	}
	b.WriteString("\nKeep it up,\nThe Sika team\n")
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your %s summary from Sika", monthName),
		Body:    b.String(),
	}
}

func Holiday(to, name string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", displayName(name))
	b.WriteString("Season's greetings from all of us at Sika!\n\n")
	b.WriteString("Thank you for tracking your finances with us this year.\n")
	b.WriteString("We wish you a restful holiday and a prosperous new year.\n\n")
	b.WriteString("Warmly,\nThe Sika team\n")
	return Message{
		To:      to,
		Subject: "Season's greetings from Sika",
		Body:    b.String(),
	}
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	return name
}
