package http

import (
	"fmt"
	"net/http"
	"strings"
)

// handleNotifyTest sends a test email to the caller's own address so
// operators can verify mail delivery end to end.
func (s *Server) handleNotifyTest(w http.ResponseWriter, r *http.Request) {
	if s.sender == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "mail delivery not configured"})
		return
	}

	user, err := s.users.GetUser(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	subject := "Test notification"
	body := fmt.Sprintf("Hi %s,\n\nthis is a test notification. Mail delivery works.\n", user.Name)
	if err := s.sender.Send(r.Context(), user.Email, subject, body, ""); err != nil {
		writeError(w, fmt.Errorf("send test email: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent", "to": user.Email})
}

type queryRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// handleNotifyQuery forwards a free-form user query to the admin inbox.
func (s *Server) handleNotifyQuery(w http.ResponseWriter, r *http.Request) {
	if s.sender == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "mail delivery not configured"})
		return
	}
	if s.adminEmail == "" {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "admin inbox not configured"})
		return
	}

	var req queryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	req.Subject = sanitizeInput(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeBadRequest(w, "message is required")
		return
	}
	if req.Subject == "" {
		req.Subject = "User query"
	}

	user, err := s.users.GetUser(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	subject := fmt.Sprintf("[billa] %s", req.Subject)
	body := fmt.Sprintf("From: %s <%s>\n\n%s\n", user.Name, user.Email, req.Message)
	if err := s.sender.Send(r.Context(), s.adminEmail, subject, body, ""); err != nil {
		writeError(w, fmt.Errorf("forward query: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
