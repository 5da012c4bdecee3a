// Package http exposes the ledger as a JSON API for external
// frontends. Snapshots and reports are cached briefly; any write
// invalidates the affected month.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/MedicD21/InnieOutie/internal/cache"
	"github.com/MedicD21/InnieOutie/internal/core"
	applog "github.com/MedicD21/InnieOutie/internal/log"
	"github.com/MedicD21/InnieOutie/internal/services"
)

type requestIDKey struct{}

type Server struct {
	http.Server
	ledger       *services.LedgerService
	currencyCode string
	rateLimiter  *rateLimiter

	snapshotCache *cache.LRUCache[core.MonthlySnapshot]
	cacheManager  *cache.Manager
	shutdownOnce  sync.Once
}

// NewServer wires routes and caches around the ledger service.
func NewServer(addr string, ledger *services.LedgerService, currencyCode string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:        ledger,
		currencyCode:  currencyCode,
		rateLimiter:   newRateLimiter(),
		snapshotCache: cache.NewLRUCache[core.MonthlySnapshot](100, 5*time.Minute),
		cacheManager:  cache.NewManager(),
	}
	s.cacheManager.Register(s.snapshotCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/snapshot", s.withMiddleware(s.handleSnapshot))
	mux.HandleFunc("GET /api/reports/annual", s.withMiddleware(s.handleAnnualReport))
	mux.HandleFunc("GET /api/reports/tag", s.withMiddleware(s.handleTagReport))
	mux.HandleFunc("GET /api/export/monthly", s.withMiddleware(s.handleExportMonthly))
	mux.HandleFunc("GET /api/export/annual", s.withMiddleware(s.handleExportAnnual))
	mux.HandleFunc("GET /api/export/tag", s.withMiddleware(s.handleExportTag))

	mux.HandleFunc("GET /api/expenses", s.withMiddleware(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.withMiddleware(s.handleCreateExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.withMiddleware(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withMiddleware(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/income", s.withMiddleware(s.handleListIncome))
	mux.HandleFunc("POST /api/income", s.withMiddleware(s.handleCreateIncome))
	mux.HandleFunc("PUT /api/income/{id}", s.withMiddleware(s.handleUpdateIncome))
	mux.HandleFunc("DELETE /api/income/{id}", s.withMiddleware(s.handleDeleteIncome))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withMiddleware(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/tags", s.withMiddleware(s.handleListTags))
	mux.HandleFunc("POST /api/tags", s.withMiddleware(s.handleCreateTag))
	mux.HandleFunc("DELETE /api/tags/{id}", s.withMiddleware(s.handleDeleteTag))

	return s
}

// withMiddleware adds request IDs, security headers, write rate
// limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(ip) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, ip,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, ip)
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// invalidateMonth drops cached snapshots for the month containing t
// and the month after it, whose month-over-month figure depends on t.
func (s *Server) invalidateMonth(t time.Time) {
	m := core.MonthOf(t)
	s.snapshotCache.DeletePrefix("snapshot:" + m.String())
	s.snapshotCache.DeletePrefix("snapshot:" + m.Next().String())
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// Shutdown stops the HTTP server and the cache and rate limiter
// goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
