package server

import (
	"encoding/json"
	"net/http"

	"github.com/sanghalabs/bodhikit"
)

// handleChat runs one conversation turn and streams the outbound messages
// as server-sent events, ending with an explicit done marker.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req bodhikit.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if req.ApprovalResponse != nil {
		decision := "declined"
		if req.ApprovalResponse.Approved {
			decision = "approved"
		}
		s.metrics.ApprovalsResolved.WithLabelValues(decision).Inc()
	}

	state := "done"
	for msg := range s.builder.Chat(r.Context(), req) {
		s.metrics.ChatMessages.WithLabelValues(string(msg.Type)).Inc()
		switch msg.Type {
		case bodhikit.MessageTypeApprovalRequest:
			s.metrics.ApprovalsCreated.Inc()
			state = "awaiting_approval"
		case bodhikit.MessageTypeError:
			state = "errored"
		}

		if err := bodhikit.EncodeSSE(w, msg); err != nil {
			s.logger.Warn("client disconnected mid-stream", "error", err)
			s.metrics.ChatTurns.WithLabelValues("disconnected").Inc()
			return
		}
		flusher.Flush()
	}

	if err := bodhikit.EncodeSSEDone(w); err == nil {
		flusher.Flush()
	}
	s.metrics.ChatTurns.WithLabelValues(state).Inc()
}
