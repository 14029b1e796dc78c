package api

import (
	"net/http"

	"stockgravity/database"
)

// handleGetReports lists reports, optionally filtered by ticker or status.
func (s *Server) handleGetReports(w http.ResponseWriter, r *http.Request) {
	filter := database.ReportFilter{
		Ticker: r.URL.Query().Get("ticker"),
		Status: r.URL.Query().Get("status"),
		Limit:  getIntParam(r, "limit", 50),
	}

	reports, err := s.reports.List(filter)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// handleGetLatestReport returns the newest report for a ticker.
func (s *Server) handleGetLatestReport(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")

	report, err := s.reports.GetLatest(ticker)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}
