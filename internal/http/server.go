package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"partita/internal/cache"
	"partita/internal/core"
	"partita/internal/log"
	"partita/internal/services"
)

// Server exposes the ledger JSON API. It wraps http.Server with per-IP rate
// limiting, security headers, request logging, and a short-lived cache for
// transaction listings.
type Server struct {
	http.Server
	ledger      *services.TransactionService
	auth        *services.AuthService
	logger      *log.Logger
	rateLimiter *rateLimiter

	// Per-owner transaction listings, invalidated on every write.
	listCache *cache.LRUCache[[]core.Transaction]

	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger *services.TransactionService, authSvc *services.AuthService, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:       ledger,
		auth:         authSvc,
		logger:       logger.WithComponent(log.ComponentHTTP),
		rateLimiter:  newRateLimiter(),
		listCache:    cache.NewLRUCache[[]core.Transaction](500, time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.listCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/users", s.withSecurity(s.handleRegister))
	mux.HandleFunc("POST /api/sessions", s.withSecurity(s.handleLogin))
	mux.HandleFunc("POST /api/password-resets", s.withSecurity(s.handleForgotPassword))
	mux.HandleFunc("PUT /api/password-resets", s.withSecurity(s.handleResetPassword))

	mux.HandleFunc("GET /api/transactions", s.withSecurity(s.withAuth(s.handleListTransactions)))
	mux.HandleFunc("POST /api/transactions", s.withSecurity(s.withAuth(s.handleCreateTransaction)))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.withSecurity(s.withAuth(s.handleUpdateTransaction)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withSecurity(s.withAuth(s.handleDeleteTransaction)))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurity adds security headers, rate limiting, and request logging.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ip := clientIP(r)
		requestID := generateRequestID()

		reqLogger := s.logger.With(log.FieldRequestID, requestID)
		requests := log.NewStructuredLogger(reqLogger)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, reqLogger)
		r = r.WithContext(ctx)

		requests.LogHTTPStart(ctx, r, ip)

		// Rate limit mutating requests only; listings stay cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(ip) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, ip,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		requests.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), ip)
	}
}

// withAuth resolves the bearer session token and passes the user through.
func (s *Server) withAuth(next func(http.ResponseWriter, *http.Request, *core.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		user, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Session lookup failed", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		next(w, r, user)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
