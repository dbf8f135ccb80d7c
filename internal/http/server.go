package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wishgift/internal/cache"
	"wishgift/internal/core"
	"wishgift/internal/services"
	"wishgift/internal/storage"
)

type Server struct {
	http.Server
	service     *services.LedgerService
	storage     *storage.SQLiteRepository
	rateLimiter *rateLimiter
	secMetrics  *securityMetrics

	// Wishlist overviews are the hot read path; cache them briefly and
	// invalidate on every write to the list.
	overviewCache *cache.LRUCache[core.WishlistOverview]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, service *services.LedgerService, repo *storage.SQLiteRepository) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		service:          service,
		storage:          repo,
		rateLimiter:      newRateLimiter(postBudget, postWindow),
		secMetrics:       &securityMetrics{},
		overviewCache:    cache.NewLRUCache[core.WishlistOverview](200, 30*time.Second),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("POST /users", s.guard("/users", s.handleCreateUser))
	mux.HandleFunc("GET /users/{id}/balance", s.guard("/users/{id}/balance", s.handleUserBalance))

	mux.HandleFunc("GET /vendors", s.guard("/vendors", s.handleListVendors))
	mux.HandleFunc("POST /vendor/register", s.guard("/vendor/register", s.handleRegisterVendor))
	mux.HandleFunc("POST /vendor/{id}/items", s.guard("/vendor/{id}/items", s.handleAddItem))
	mux.HandleFunc("GET /items/{id}", s.guard("/items/{id}", s.handleGetItem))

	mux.HandleFunc("POST /wishlists", s.guard("/wishlists", s.handleCreateWishlist))
	mux.HandleFunc("GET /wishlists/{id}", s.guard("/wishlists/{id}", s.handleWishlistOverview))
	mux.HandleFunc("POST /wishlists/{id}/gift", s.guard("/wishlists/{id}/gift", s.handleGift))

	mux.HandleFunc("POST /entries/{id}/contributions", s.guard("/entries/{id}/contributions", s.handleContribute))
	mux.HandleFunc("GET /entries/{id}/contributions", s.guard("/entries/{id}/contributions", s.handleListContributions))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// guard adds security headers, rate limiting, request logging and metrics.
// route is the registered pattern, used as the bounded metrics label.
func (s *Server) guard(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r, s.secMetrics)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutating requests only; reads are cheap and cached.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.secMetrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(int(postWindow.Seconds())))
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
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
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// startCacheCleanup runs periodic cleanup for the overview cache.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.overviewCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "overview_entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) overviewCacheKey(wishlistID int64) string {
	return strconv.FormatInt(wishlistID, 10)
}

func (s *Server) invalidateOverview(wishlistID int64) {
	s.overviewCache.Delete(s.overviewCacheKey(wishlistID))
}

func (s *Server) getOverview(ctx context.Context, wishlistID int64) (core.WishlistOverview, error) {
	key := s.overviewCacheKey(wishlistID)

	if data, found := s.overviewCache.Get(key); found {
		slog.DebugContext(ctx, "Overview cache hit", "wishlist_id", wishlistID)
		return data, nil
	}

	ov, err := s.service.GetWishlistOverview(ctx, wishlistID)
	if err != nil {
		return core.WishlistOverview{}, err
	}

	s.overviewCache.Set(key, ov)
	slog.DebugContext(ctx, "Overview cached", "wishlist_id", wishlistID, "entries", len(ov.Entries))
	return ov, nil
}
