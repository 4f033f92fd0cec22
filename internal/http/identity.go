package http

import (
	"context"
	"net/http"
	"strings"

	"sika/internal/log"
)

// Identity is the authenticated caller, taken from headers set by the
// auth proxy in front of this service.
type Identity struct {
	ID    string
	Email string
	Name  string
}

type identityKey struct{}

const (
	headerUserID    = "X-User-ID"
	headerUserEmail = "X-User-Email"
	headerUserName  = "X-User-Name"
	headerDeviceID  = "X-Device-ID"

	defaultDeviceID = "default"
)

// withIdentity requires the user headers, registers the user on first sight,
// and stores the identity in the request context.
func (s *Server) withIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := Identity{
			ID:    strings.TrimSpace(r.Header.Get(headerUserID)),
			Email: strings.TrimSpace(r.Header.Get(headerUserEmail)),
			Name:  strings.TrimSpace(r.Header.Get(headerUserName)),
		}
		if id.ID == "" || id.Email == "" {
			respondError(w, http.StatusUnauthorized, "missing identity headers")
			return
		}

		if err := s.users.Ensure(r.Context(), id.ID, id.Email, id.Name); err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to ensure user",
				log.FieldOwner, id.ID, log.FieldError, err.Error())
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next(w, r.WithContext(ctx))
	}
}

func identityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// deviceFrom returns the per-device key used for client-state flags.
func deviceFrom(r *http.Request) string {
	if d := strings.TrimSpace(r.Header.Get(headerDeviceID)); d != "" {
		return d
	}
	return defaultDeviceID
}
