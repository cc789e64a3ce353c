package server

import "net/http"

func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	pending, err := s.approvals.Pending(r.Context())
	if err != nil {
		s.logger.Error("list approvals failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not list approvals")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"approvals": pending,
		"count":     len(pending),
	})
}
