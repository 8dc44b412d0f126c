package http

import (
	"context"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleReady performs readiness check with dependency verification.
// Only the catalog gates readiness: with the ledger down the API still
// serves the catalog and zeroed aggregates, so the ledger is not checked.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if _, err := s.properties.ListProperties(ctx); err != nil {
		checks["catalog"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["catalog"] = "ok"
	}

	s.writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}
