// Package export renders a user's transactions as CSV for download.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"sika/internal/core"
)

// Header is the fixed CSV header row. Category and note are always quoted in
// data rows; date, type and amount never are, so encoding/csv's minimal
// quoting cannot produce this layout and rows are written by hand.
const Header = "Date,Type,Category,Amount (₵),Note"

// Filename returns the download name for an export generated on the given day.
func Filename(now time.Time) string {
	return "sika-transactions-" + now.Format("2006-01-02") + ".csv"
}

// WriteTransactions writes the header and one row per transaction.
func WriteTransactions(w io.Writer, txs []core.Transaction) error {
	if _, err := io.WriteString(w, Header+"\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, tx := range txs {
		if _, err := io.WriteString(w, Row(tx)+"\n"); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return nil
}

// Row renders one transaction as a CSV line (no trailing newline).
func Row(tx core.Transaction) string {
	return tx.Date.String() + "," +
		string(tx.Type) + "," +
		quote(tx.Category) + "," +
		core.FormatCents(tx.Amount.Cents) + "," +
		quote(tx.Note)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
