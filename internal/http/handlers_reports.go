package http

import (
	"net/http"
	"strconv"
	"time"

	"sika/internal/core"
	"sika/internal/log"
	"sika/internal/report"
)

type summaryJSON struct {
	Month            int    `json:"month"`
	Year             int    `json:"year"`
	Income           int64  `json:"income"`
	Expenses         int64  `json:"expenses"`
	Balance          int64  `json:"balance"`
	TransactionCount int    `json:"transactionCount"`
	Key              string `json:"key"`
}

func toSummaryJSON(s core.MonthlySummary) summaryJSON {
	return summaryJSON{
		Month:            s.Month,
		Year:             s.Year,
		Income:           s.Income.Cents,
		Expenses:         s.Expenses.Cents,
		Balance:          s.Balance.Cents,
		TransactionCount: s.TransactionCount,
		Key:              core.MonthKey(s.Year, s.Month),
	}
}

// handleListSummaries returns stored monthly summaries, newest first. With no
// window it guarantees the trailing three months appear, synthesizing zero
// rows for inactive months.
func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	start, end, err := windowFromQuery(r)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	summaries, err := s.transactions.Summaries(r.Context(), id.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list summaries",
			log.FieldOwner, id.ID, log.FieldError, err.Error())
		respondDomainError(w, err)
		return
	}

	if start.IsZero() && end.IsZero() {
		summaries = report.FillTrailingMonths(summaries, id.ID, time.Now(), report.TrailingMonths)
	} else {
		summaries = report.FilterWindow(summaries, start, end)
	}

	out := make([]summaryJSON, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, toSummaryJSON(sum))
	}
	respondJSON(w, http.StatusOK, map[string]any{"summaries": out})
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	start, end, err := windowFromQuery(r)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	breakdown, err := s.transactions.Categories(r.Context(), id.ID, start, end)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": breakdown})
}

func (s *Server) handleMonthlyCategories(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	start, end, err := windowFromQuery(r)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	txs, err := s.transactions.List(r.Context(), id.ID, start, end)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	buckets := report.MonthlyCategoryBuckets(txs, core.Date{}, core.Date{})
	respondJSON(w, http.StatusOK, map[string]any{"months": buckets})
}

// handleTrends compares the two newest summaries, or a specific month against
// its predecessor when month and year are given.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var trends *report.MonthTrends
	var err error
	monthStr, yearStr := r.URL.Query().Get("month"), r.URL.Query().Get("year")
	if monthStr != "" || yearStr != "" {
		month, merr := strconv.Atoi(monthStr)
		year, yerr := strconv.Atoi(yearStr)
		if merr != nil || yerr != nil || month < 1 || month > 12 {
			respondError(w, http.StatusUnprocessableEntity, "invalid month/year")
			return
		}
		var summaries []core.MonthlySummary
		summaries, err = s.transactions.Summaries(r.Context(), id.ID)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		trends = report.TrendsForMonth(summaries, month, year)
	} else {
		trends, err = s.transactions.Trends(r.Context(), id.ID)
		if err != nil {
			respondDomainError(w, err)
			return
		}
	}

	if trends == nil {
		respondJSON(w, http.StatusOK, map[string]any{"trends": nil})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"trends": trends})
}

// previousMonth returns a time within the calendar month before t. Anchoring
// to the first of the month avoids AddDate normalization on day-31 dates.
func previousMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, -1, 0)
}

// handleRecap reports whether the previous-month recap should be shown on
// this device, with the recap payload when it should.
func (s *Server) handleRecap(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	device := deviceFrom(r)
	now := time.Now()

	seen, err := s.flags.RecapSeen(r.Context(), id.ID, device)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	summaries, err := s.transactions.Summaries(r.Context(), id.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	prev := previousMonth(now)
	currentKey := core.MonthKey(prev.Year(), int(prev.Month()))
	preceding := report.FindSummary(summaries, int(prev.Month()), prev.Year())

	if !report.RecapEligible(seen, currentKey, preceding) {
		respondJSON(w, http.StatusOK, map[string]any{"show": false})
		return
	}

	txs, err := s.transactions.List(r.Context(), id.ID, core.Date{}, core.Date{})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	recap := report.BuildRecap(summaries, txs, now)
	if recap == nil {
		respondJSON(w, http.StatusOK, map[string]any{"show": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"show": true, "recap": recap})
}

func (s *Server) handleRecapAck(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	prev := previousMonth(time.Now())
	key := core.MonthKey(prev.Year(), int(prev.Month()))
	if err := s.flags.SetRecapSeen(r.Context(), id.ID, deviceFrom(r), key); err != nil {
		respondDomainError(w, err)
		return
	}
	respondMessage(w, "recap acknowledged", nil)
}

// handleGreeting reports whether this device just crossed into a new month.
func (s *Server) handleGreeting(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	stored, err := s.flags.GreetingMonth(r.Context(), id.ID, deviceFrom(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	now := time.Now()
	currentKey := core.MonthKey(now.Year(), int(now.Month()))
	respondJSON(w, http.StatusOK, map[string]any{
		"newMonth": report.NewMonthEligible(stored, currentKey),
		"key":      currentKey,
	})
}

func (s *Server) handleGreetingAck(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	now := time.Now()
	key := core.MonthKey(now.Year(), int(now.Month()))
	if err := s.flags.SetGreetingMonth(r.Context(), id.ID, deviceFrom(r), key); err != nil {
		respondDomainError(w, err)
		return
	}
	respondMessage(w, "greeting acknowledged", nil)
}

func (s *Server) handleTour(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	seen, err := s.flags.TourSeen(r.Context(), id.ID, deviceFrom(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"seen": seen})
}

func (s *Server) handleTourAck(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	if err := s.flags.MarkTourSeen(r.Context(), id.ID, deviceFrom(r)); err != nil {
		respondDomainError(w, err)
		return
	}
	respondMessage(w, "tour acknowledged", nil)
}
