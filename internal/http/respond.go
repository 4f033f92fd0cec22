package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"sika/internal/core"
)

// envelope is the uniform response shape: message or error, plus optional
// operation stats.
type envelope struct {
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Stats   map[string]any `json:"stats,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondMessage(w http.ResponseWriter, message string, stats map[string]any) {
	respondJSON(w, http.StatusOK, envelope{Message: message, Stats: stats})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Error: message})
}

// respondDomainError maps domain errors onto the status taxonomy: not-found
// is 404, validation failures are 422, everything else is a 500 with a
// generic message so storage detail stays out of responses.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case isValidationError(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidType,
		core.ErrInvalidDate,
		core.ErrEmptyCategory,
		core.ErrEmptyOwner,
		core.ErrInvalidMonth,
		core.ErrEmptyTitle,
		core.ErrEmptySlug,
		core.ErrEmptyBody,
		core.ErrTooLong,
		core.ErrBadBalance,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
