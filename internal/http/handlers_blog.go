package http

import (
	"encoding/json"
	"net/http"
	"time"

	"sika/internal/core"
	"sika/internal/log"
)

type blogPostJSON struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content,omitempty"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
}

func toBlogPostJSON(p core.BlogPost, withContent bool) blogPostJSON {
	out := blogPostJSON{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Published: p.Published,
		CreatedAt: p.CreatedAt,
	}
	if withContent {
		out.Content = p.Content
	}
	return out
}

type commentJSON struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	postsCachePrefix    = "posts:"
	postsCachePublished = postsCachePrefix + "published"
	postsCacheAll       = postsCachePrefix + "all"
)

// invalidatePostsCache drops every cached listing variant after a post
// mutation.
func (s *Server) invalidatePostsCache() {
	s.postsCache.DeletePrefix(postsCachePrefix)
}

// isAdmin reports whether the request identity passes the admin policy.
// Admins see unpublished drafts in blog listings.
func (s *Server) isAdmin(r *http.Request) bool {
	id, ok := identityFrom(r.Context())
	return ok && s.adminPolicy.IsAuthorized(id.Email)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	cacheKey := postsCachePublished
	if s.isAdmin(r) {
		cacheKey = postsCacheAll
	}

	posts, ok := s.postsCache.Get(cacheKey)
	if !ok {
		var err error
		posts, err = s.blog.ListPosts(r.Context(), cacheKey == postsCacheAll)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to list posts", log.FieldError, err.Error())
			respondDomainError(w, err)
			return
		}
		s.postsCache.Set(cacheKey, posts)
	}

	out := make([]blogPostJSON, 0, len(posts))
	for _, p := range posts {
		out = append(out, toBlogPostJSON(p, false))
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": out})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.blog.GetPost(r.Context(), r.PathValue("slug"), s.isAdmin(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toBlogPostJSON(post, true))
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	post, err := s.blog.GetPost(r.Context(), r.PathValue("slug"), s.isAdmin(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	comments, err := s.blog.Comments(r.Context(), post.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	out := make([]commentJSON, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentJSON{ID: c.ID, OwnerID: c.OwnerID, Body: c.Body, CreatedAt: c.CreatedAt})
	}
	respondJSON(w, http.StatusOK, map[string]any{"comments": out})
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	post, err := s.blog.GetPost(r.Context(), r.PathValue("slug"), s.isAdmin(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	comment, err := s.blog.AddComment(r.Context(), post.ID, id.ID, req.Body)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, commentJSON{
		ID: comment.ID, OwnerID: comment.OwnerID, Body: comment.Body, CreatedAt: comment.CreatedAt,
	})
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	post, err := s.blog.GetPost(r.Context(), r.PathValue("slug"), s.isAdmin(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	liked, count, err := s.blog.ToggleLike(r.Context(), post.ID, id.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"liked": liked, "likes": count})
}
