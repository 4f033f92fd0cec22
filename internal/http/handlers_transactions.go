package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sika/internal/core"
	"sika/internal/export"
	"sika/internal/log"
)

type transactionRequest struct {
	Amount   string `json:"amount"` // decimal string, e.g. "15.50"
	Type     string `json:"type"`
	Category string `json:"category"`
	Note     string `json:"note"`
	Date     string `json:"date"` // YYYY-MM-DD
}

type transactionJSON struct {
	ID          string    `json:"id"`
	Amount      string    `json:"amount"`
	AmountCents int64     `json:"amountCents"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Note        string    `json:"note,omitempty"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          tx.ID,
		Amount:      core.FormatCents(tx.Amount.Cents),
		AmountCents: tx.Amount.Cents,
		Type:        string(tx.Type),
		Category:    tx.Category,
		Note:        tx.Note,
		Date:        tx.Date.String(),
		CreatedAt:   tx.CreatedAt,
	}
}

func (s *Server) decodeTransaction(r *http.Request, ownerID string) (core.Transaction, error) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.Transaction{}, fmt.Errorf("invalid request body: %w", err)
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	return core.Transaction{
		OwnerID:  ownerID,
		Amount:   core.Money{Cents: cents},
		Type:     core.TransactionType(req.Type),
		Category: req.Category,
		Note:     req.Note,
		Date:     date,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	tx, err := s.decodeTransaction(r, id.ID)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.transactions.Create(r.Context(), tx)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to create transaction",
			log.FieldOwner, id.ID, log.FieldError, err.Error())
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toTransactionJSON(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	start, end, err := windowFromQuery(r)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	txs, err := s.transactions.List(r.Context(), id.ID, start, end)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list transactions",
			log.FieldOwner, id.ID, log.FieldError, err.Error())
		respondDomainError(w, err)
		return
	}

	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionJSON(tx))
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	tx, err := s.transactions.Get(r.Context(), id.ID, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionJSON(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	tx, err := s.decodeTransaction(r, id.ID)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	tx.ID = r.PathValue("id")

	if err := s.transactions.Update(r.Context(), tx); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to update transaction",
			log.FieldOwner, id.ID, log.FieldTxID, tx.ID, log.FieldError, err.Error())
		respondDomainError(w, err)
		return
	}
	respondMessage(w, "transaction updated", nil)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	txID := r.PathValue("id")

	if err := s.transactions.Delete(r.Context(), id.ID, txID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondMessage(w, "transaction deleted", nil)
}

func (s *Server) handleDeleteAllTransactions(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	deleted, err := s.transactions.DeleteAll(r.Context(), id.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to delete all transactions",
			log.FieldOwner, id.ID, log.FieldError, err.Error())
		respondDomainError(w, err)
		return
	}
	respondMessage(w, "all transactions deleted", map[string]any{"deleted": deleted})
}

func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	txs, err := s.transactions.List(r.Context(), id.ID, core.Date{}, core.Date{})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(time.Now())))
	if err := export.WriteTransactions(w, txs); err != nil {
		s.logger.ErrorContext(r.Context(), "CSV export failed",
			log.FieldOwner, id.ID, log.FieldError, err.Error())
	}
}

// windowFromQuery parses the optional start/end date bounds.
func windowFromQuery(r *http.Request) (core.Date, core.Date, error) {
	var start, end core.Date
	if v := r.URL.Query().Get("start"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("start: %w", err)
		}
		start = d
	}
	if v := r.URL.Query().Get("end"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("end: %w", err)
		}
		end = d
	}
	return start, end, nil
}
