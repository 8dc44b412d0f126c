package http

import (
	"net/http"

	"aporte/internal/finance"
	"aporte/internal/log"
)

// handleListProperties returns every property in the catalog.
func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	properties, err := s.properties.ListProperties(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed listing properties", log.FieldError, err)
		s.writeError(w, http.StatusBadGateway, "property catalog unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"properties": properties,
		"count":      len(properties),
	})
}

type costResponse struct {
	PropertyName string `json:"propertyName"`
	finance.CostReport
}

// handleProjectCost returns the aggregated cost report for one property.
// A property without a matching ledger project, or an unreachable ledger,
// yields an empty report rather than an error.
func (s *Server) handleProjectCost(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	name, ok := s.queryParam(w, r, "name")
	if !ok {
		return
	}

	report := s.fin.ProjectCost(r.Context(), name)
	s.writeJSON(w, http.StatusOK, costResponse{
		PropertyName: name,
		CostReport:   report,
	})
}
