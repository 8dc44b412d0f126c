package http

import (
	"encoding/json"
	"net/http"

	"aporte/internal/log"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin matches credentials against the investor registry. The
// registry is a spreadsheet of plain cells, so this is identification,
// not real authentication.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := sanitizeInput(req.Email)
	if email == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	investor, found, err := s.investors.FindInvestor(r.Context(), email, req.Password)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed reading investor registry", log.FieldError, err)
		s.writeError(w, http.StatusBadGateway, "investor registry unavailable")
		return
	}
	if !found {
		s.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"investor": investor})
}

type investorSummary struct {
	InvestorID     string  `json:"investorId"`
	PropertyName   string  `json:"propertyName"`
	Contribution   float64 `json:"contribution"`
	RealizedProfit float64 `json:"realizedProfit"`
}

// handleInvestorSummary returns one investor's contribution and realized
// profit for a property. Both figures collapse to zero when the ledger
// cannot answer.
func (s *Server) handleInvestorSummary(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	investorID, ok := s.queryParam(w, r, "id")
	if !ok {
		return
	}
	name, ok := s.queryParam(w, r, "name")
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, investorSummary{
		InvestorID:     investorID,
		PropertyName:   name,
		Contribution:   s.fin.InvestorContribution(r.Context(), investorID, name),
		RealizedProfit: s.fin.RealizedProfit(r.Context(), name, investorID),
	})
}
