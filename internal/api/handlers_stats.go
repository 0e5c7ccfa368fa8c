package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"latency":      s.orchestrator.Stats(),
		"queue_depth":  s.orchestrator.QueueDepth(),
		"tracked_jobs": s.orchestrator.TrackedJobs(),
		"workers":      s.cfg.WorkerCount,
	}
	if s.docs != nil {
		n, err := s.docs.Count(r.Context())
		if err != nil {
			s.log.Warn("count documents failed", "error", err)
		} else {
			body["stored_documents"] = n
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
