package http

import "net/http"

// handleSummary aggregates the caller's full subscription set as of
// the current instant. Responses are memoized per owner and
// invalidated by the service on every mutation.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Summary(r.Context(), ownerID(r), s.clock())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
