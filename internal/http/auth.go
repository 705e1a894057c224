package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenVerifier validates a bearer token and returns the owner id it
// was issued for. *auth.Manager satisfies it.
type TokenVerifier interface {
	Verify(tokenString string) (string, error)
}

type contextKey string

const ownerIDKey contextKey = "owner_id"

// ownerID returns the authenticated owner id injected by withAuth.
func ownerID(r *http.Request) string {
	id, _ := r.Context().Value(ownerIDKey).(string)
	return id
}

// withAuth rejects requests without a valid bearer token and stores
// the token's subject in the request context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}

		id, err := s.verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			slog.WarnContext(r.Context(), "Rejected bearer token", "error", err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid bearer token"})
			return
		}

		ctx := context.WithValue(r.Context(), ownerIDKey, id)
		next(w, r.WithContext(ctx))
	}
}
