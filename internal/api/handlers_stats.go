package api

import (
	"encoding/json"
	"net/http"
)

// handleResolutionStats reports rolling resolution metrics plus queue state.
func (s *Server) handleResolutionStats(w http.ResponseWriter, r *http.Request) {
	snap := s.stats.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"resolutions": snap,
		"queue_depth": s.orchestrator.QueueDepth(),
		"documents":   s.docs.Count(),
	})
}
