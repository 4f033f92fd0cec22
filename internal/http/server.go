// Package http exposes the JSON API. Handlers stay thin: decode, call the
// service or report layer, encode the envelope.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"sika/internal/admin"
	"sika/internal/amqp"
	"sika/internal/cache"
	"sika/internal/core"
	"sika/internal/flags"
	"sika/internal/log"
	"sika/internal/services"
)

type Server struct {
	http.Server

	transactions *services.TransactionService
	users        *services.UserService
	blog         *services.BlogService
	flags        *flags.Service
	adminPolicy  *admin.Policy
	amqpClient   *amqp.Client
	logger       *log.Logger

	rateLimiter  *rateLimiter
	postsCache   *cache.LRUCache[[]core.BlogPost]
	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// NewServer wires the routes and middleware, returning a ready-to-run server.
func NewServer(addr string, transactions *services.TransactionService, users *services.UserService, blog *services.BlogService, flagSvc *flags.Service, adminPolicy *admin.Policy, amqpClient *amqp.Client, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		transactions: transactions,
		users:        users,
		blog:         blog,
		flags:        flagSvc,
		adminPolicy:  adminPolicy,
		amqpClient:   amqpClient,
		logger:       logger.WithComponent(log.ComponentHTTP),
		rateLimiter:  newRateLimiter(),
		postsCache:   cache.NewLRUCache[[]core.BlogPost](10, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.postsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	// Transactions
	mux.HandleFunc("POST /api/transactions", s.protected(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.protected(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/export", s.protected(s.handleExportTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.protected(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.protected(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.protected(s.handleDeleteTransaction))
	mux.HandleFunc("DELETE /api/transactions", s.protected(s.handleDeleteAllTransactions))

	// Reports
	mux.HandleFunc("GET /api/summaries", s.protected(s.handleListSummaries))
	mux.HandleFunc("GET /api/categories", s.protected(s.handleCategoryBreakdown))
	mux.HandleFunc("GET /api/categories/monthly", s.protected(s.handleMonthlyCategories))
	mux.HandleFunc("GET /api/trends", s.protected(s.handleTrends))

	// Client state: recap, new-month greeting, tour
	mux.HandleFunc("GET /api/recap", s.protected(s.handleRecap))
	mux.HandleFunc("POST /api/recap/ack", s.protected(s.handleRecapAck))
	mux.HandleFunc("GET /api/greeting", s.protected(s.handleGreeting))
	mux.HandleFunc("POST /api/greeting/ack", s.protected(s.handleGreetingAck))
	mux.HandleFunc("GET /api/tour", s.protected(s.handleTour))
	mux.HandleFunc("POST /api/tour/ack", s.protected(s.handleTourAck))

	// Blog
	mux.HandleFunc("GET /api/blog", s.protected(s.handleListPosts))
	mux.HandleFunc("GET /api/blog/{slug}", s.protected(s.handleGetPost))
	mux.HandleFunc("GET /api/blog/{slug}/comments", s.protected(s.handleListComments))
	mux.HandleFunc("POST /api/blog/{slug}/comments", s.protected(s.handleAddComment))
	mux.HandleFunc("POST /api/blog/{slug}/like", s.protected(s.handleToggleLike))

	// Admin
	mux.HandleFunc("GET /api/admin/users", s.adminOnly(s.handleListUsers))
	mux.HandleFunc("POST /api/admin/mail/welcome", s.adminOnly(s.handleSendWelcome))
	mux.HandleFunc("POST /api/admin/mail/weekly-summary", s.adminOnly(s.handleSendWeeklySummary))
	mux.HandleFunc("POST /api/admin/mail/holiday", s.adminOnly(s.handleSendHoliday))
	mux.HandleFunc("POST /api/admin/blog", s.adminOnly(s.handleCreatePost))
	mux.HandleFunc("POST /api/admin/blog/{id}/publish", s.adminOnly(s.handlePublishPost))

	return s
}

// protected runs the common middleware chain plus identity resolution.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return s.withSecurityHeaders(s.withIdentity(next))
}

// adminOnly additionally requires the identity to pass the admin policy.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return s.protected(func(w http.ResponseWriter, r *http.Request) {
		id, _ := identityFrom(r.Context())
		if !s.adminPolicy.IsAuthorized(id.Email) {
			s.logger.WarnContext(r.Context(), "Admin access denied", "email", id.Email, "url", r.URL.Path)
			respondError(w, http.StatusForbidden, "access denied")
			return
		}
		next(w, r)
	})
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		// Mutations are rate limited per client.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

// Shutdown stops the HTTP server and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
