package http

import (
	"crypto/subtle"
	"net/http"

	"aporte/internal/log"
)

// handleCacheClear drops every cached aggregate and reference collection.
// The route only exists when an admin token is configured.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if s.adminToken == "" {
		http.NotFound(w, r)
		return
	}
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	token := bearerToken(r)
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
		s.logger.WarnContext(r.Context(), "Cache clear rejected", log.FieldPath, r.URL.Path)
		s.writeError(w, http.StatusUnauthorized, "invalid admin token")
		return
	}

	s.fin.ClearCache()
	s.logger.InfoContext(r.Context(), "Cache cleared via admin endpoint")

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cache cleared"})
}
