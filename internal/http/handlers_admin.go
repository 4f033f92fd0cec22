package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"sika/internal/amqp"
	"sika/internal/core"
	"sika/internal/log"
)

var errBrokerUnavailable = errors.New("message broker unavailable")

type userJSON struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list users", log.FieldError, err.Error())
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt})
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": out})
}

// handleSendWelcome queues a welcome email for one known user.
func (s *Server) handleSendWelcome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusUnprocessableEntity, "email is required")
		return
	}

	user, err := s.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if err := s.enqueueMail(r, amqp.MailWelcome, user); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to queue email")
		return
	}
	respondMessage(w, "welcome email queued", map[string]any{"queued": 1})
}

// handleSendWeeklySummary queues a summary email for every user.
func (s *Server) handleSendWeeklySummary(w http.ResponseWriter, r *http.Request) {
	s.broadcastMail(w, r, amqp.MailWeeklySummary, "weekly summary emails queued")
}

// handleSendHoliday queues the holiday greeting for every user.
func (s *Server) handleSendHoliday(w http.ResponseWriter, r *http.Request) {
	s.broadcastMail(w, r, amqp.MailHoliday, "holiday emails queued")
}

func (s *Server) broadcastMail(w http.ResponseWriter, r *http.Request, kind string, message string) {
	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list users", log.FieldError, err.Error())
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	queued := 0
	for _, user := range users {
		if err := s.enqueueMail(r, kind, user); err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to queue mail job",
				log.FieldMailKind, kind, log.FieldRecipient, user.Email, log.FieldError, err.Error())
			continue
		}
		queued++
	}

	if queued == 0 && len(users) > 0 {
		respondError(w, http.StatusInternalServerError, "failed to queue emails")
		return
	}
	respondMessage(w, message, map[string]any{"queued": queued, "users": len(users)})
}

func (s *Server) enqueueMail(r *http.Request, kind string, user core.User) error {
	if s.amqpClient == nil {
		return errBrokerUnavailable
	}
	return s.amqpClient.PublishMailJob(r.Context(), kind, user.Email, user.Name, user.ID)
}

type blogPostRequest struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var req blogPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	post, err := s.blog.CreatePost(r.Context(), id.ID, req.Title, req.Slug, req.Content)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	s.invalidatePostsCache()
	respondJSON(w, http.StatusCreated, toBlogPostJSON(post, true))
}

func (s *Server) handlePublishPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Published *bool `json:"published"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Published == nil {
		respondError(w, http.StatusUnprocessableEntity, "published is required")
		return
	}

	if err := s.blog.SetPublished(r.Context(), r.PathValue("id"), *req.Published); err != nil {
		respondDomainError(w, err)
		return
	}
	s.invalidatePostsCache()
	respondMessage(w, "post updated", nil)
}
