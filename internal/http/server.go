// Package http exposes the budgeting engine as a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/HelloDanni/billflow/internal/cache"
	applog "github.com/HelloDanni/billflow/internal/log"
	"github.com/HelloDanni/billflow/internal/schedule"
	"github.com/HelloDanni/billflow/internal/services"
)

type Server struct {
	http.Server
	budget      *services.BudgetService
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	logger      *applog.StructuredLogger

	// Month views are cached per snapshot revision, so a mutation
	// naturally misses the cache without explicit invalidation.
	viewCache    *cache.LRUCache[schedule.MonthView]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, budget *services.BudgetService) *Server {
	mux := http.NewServeMux()
	base := applog.New(applog.Config{Component: applog.ComponentHTTP})

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(base)(mux),
		},
		budget:       budget,
		rateLimiter:  newRateLimiter(mutationRateLimit),
		metrics:      &securityMetrics{},
		logger:       applog.NewStructuredLogger(base),
		viewCache:    cache.NewLRUCache[schedule.MonthView](100, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.viewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/months/{month}", s.withSecurityHeaders(s.handleMonthView))
	mux.HandleFunc("GET /api/payperiod", s.withSecurityHeaders(s.handlePayPeriod))

	mux.HandleFunc("POST /api/bills", s.withSecurityHeaders(s.handleAddBill))
	mux.HandleFunc("DELETE /api/bills/{id}", s.withSecurityHeaders(s.handleDeleteBill))
	mux.HandleFunc("PATCH /api/bills/{id}/months/{month}", s.withSecurityHeaders(s.handleOverrideBill))
	mux.HandleFunc("PATCH /api/bills/{id}/future/{month}", s.withSecurityHeaders(s.handleEditBillFuture))
	mux.HandleFunc("POST /api/bills/{id}/months/{month}/toggle", s.withSecurityHeaders(s.handleTogglePaid))

	mux.HandleFunc("POST /api/incomes", s.withSecurityHeaders(s.handleAddIncome))
	mux.HandleFunc("PUT /api/incomes/{id}", s.withSecurityHeaders(s.handleUpdateIncome))
	mux.HandleFunc("DELETE /api/incomes/{id}", s.withSecurityHeaders(s.handleDeleteIncome))

	return s
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logger.LogHTTPStart(ctx, r, clientIP)

		// Mutations are rate limited; reads are not
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
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

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
