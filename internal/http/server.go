// Package http exposes the subscription tracker as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	applog "billa/internal/log"
	"billa/internal/mail"
	"billa/internal/services"
	"billa/internal/store"
)

// Options carries the server's wiring knobs.
type Options struct {
	Addr               string
	CORSAllowedOrigins []string
	AdminEmail         string
	RateLimitPerMinute int
}

type Server struct {
	http.Server

	service  *services.SubscriptionService
	users    store.UserStore
	sender   mail.Sender
	verifier TokenVerifier

	rateLimiter *rateLimiter
	corsOrigins []string
	adminEmail  string

	// clock supplies the reference instant for billing decisions.
	clock func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. sender may be nil; the notify endpoints then report 503.
func NewServer(svc *services.SubscriptionService, users store.UserStore, sender mail.Sender, verifier TokenVerifier, opts Options) *Server {
	mux := http.NewServeMux()

	perMinute := opts.RateLimitPerMinute
	if perMinute < 1 {
		perMinute = 60
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		service:     svc,
		users:       users,
		sender:      sender,
		verifier:    verifier,
		rateLimiter: newRateLimiter(perMinute),
		corsOrigins: opts.CORSAllowedOrigins,
		adminEmail:  opts.AdminEmail,
		clock:       time.Now,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("GET /api", s.wrap(s.handleBanner, false))

	mux.HandleFunc("GET /api/subscriptions", s.wrap(s.handleListSubscriptions, true))
	mux.HandleFunc("POST /api/subscriptions", s.wrap(s.handleCreateSubscription, true))
	mux.HandleFunc("GET /api/subscriptions/{id}", s.wrap(s.handleGetSubscription, true))
	mux.HandleFunc("PUT /api/subscriptions/{id}", s.wrap(s.handleUpdateSubscription, true))
	mux.HandleFunc("DELETE /api/subscriptions/{id}", s.wrap(s.handleDeleteSubscription, true))
	mux.HandleFunc("PUT /api/subscriptions/{id}/pay", s.wrap(s.handleMarkPaid, true))

	mux.HandleFunc("GET /api/analytics/summary", s.wrap(s.handleSummary, true))

	mux.HandleFunc("POST /api/notify/test", s.wrap(s.handleNotifyTest, true))
	mux.HandleFunc("POST /api/notify/query", s.wrap(s.handleNotifyQuery, true))

	mux.HandleFunc("OPTIONS /api/", s.handlePreflight)

	return s
}

// wrap applies the standard middleware chain: tracing, security
// headers, CORS, rate limiting on mutations, and optionally bearer auth.
func (s *Server) wrap(next http.HandlerFunc, authed bool) http.HandlerFunc {
	if authed {
		next = s.withAuth(next)
	}
	return s.withObservability(next)
}

func (s *Server) withObservability(next http.HandlerFunc) http.HandlerFunc {
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
		ctx := context.WithValue(r.Context(), contextKey("request_id"), requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		s.applyCORS(w, r)

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
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
			applog.FieldClientIP, clientIP)
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	if !slices.Contains(s.corsOrigins, origin) && !slices.Contains(s.corsOrigins, "*") {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Vary", "Origin")
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	w.Header().Set("Access-Control-Max-Age", "600")
	w.WriteHeader(http.StatusNoContent)
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown stops the rate limiter cleanup goroutine and drains the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "billa", "status": "ok"})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
