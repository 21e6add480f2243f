package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// handleAnalyzeWallet triggers an analysis run for an address.
// POST /api/wallets/{address}/analyze?force=true
func (s *Server) handleAnalyzeWallet(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	force := r.URL.Query().Get("force") == "true"

	report, err := s.walletService.Analyze(r.Context(), address, force)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// handleGetReport returns the stored report without triggering analysis.
// GET /api/wallets/{address}/report
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	report, err := s.walletService.GetReport(r.Context(), address)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
