package api

import (
	"net/http"
	"time"

	"stockgravity/app"
	"stockgravity/database"
	"stockgravity/indicator"
	"stockgravity/scoring"
)

// handleGetPool lists pool entries, served from the cache when possible.
func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	filter := database.PoolFilter{
		Status:   r.URL.Query().Get("status"),
		MinScore: getFloatParam(r, "min_score", 0),
		Limit:    getIntParam(r, "limit", 100),
	}

	if s.poolCache != nil {
		if cached, hit := s.poolCache.Get(r.Context(), filter); hit {
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"entries":      cached.Entries,
				"count":        len(cached.Entries),
				"last_updated": cached.CachedAt,
				"cached":       true,
			})
			return
		}
	}

	entries, err := s.pool.GetPool(filter)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	if s.poolCache != nil {
		s.poolCache.Put(r.Context(), filter, entries)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries":      entries,
		"count":        len(entries),
		"last_updated": time.Now(),
	})
}

// handleGetEntry returns one entry with its badge, wave stage, and latest
// report.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")

	entry, err := s.pool.GetByTicker(ticker)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	badgeInput := app.BadgeInput{
		FinalScore: entry.FinalScore,
		Change5d:   entry.Change5d,
		VolRatio:   entry.VolRatio,
	}

	var wave *scoring.WaveResult
	bars, err := s.history.GetBars(ticker, 252)
	if err == nil && len(bars) > 0 {
		closes := make([]float64, len(bars))
		for i, b := range bars {
			closes[i] = b.Close
		}
		if len(closes) >= 15 {
			rsi := indicator.RSI(closes, 14)
			badgeInput.RSI = &rsi
		}
		inst, foreign, ferr := s.history.FlowSums(ticker, 7)
		if ferr != nil {
			inst, foreign = 0, 0
		}
		result := scoring.ClassifyWave(bars, inst, foreign)
		wave = &result
	}

	latest, err := s.reports.GetLatest(ticker)
	if err == nil {
		badgeInput.Report = latest
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entry":  entry,
		"badge":  app.ComputeBadge(badgeInput),
		"wave":   wave,
		"report": latest,
	})
}

// handleGetHistory returns derived daily history for charting.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	days := getIntParam(r, "days", 60)

	rows, err := s.history.GetMonitoringHistory(ticker, days)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  ticker,
		"history": rows,
		"count":   len(rows),
	})
}

// handleGetSnapshots returns the archived pool snapshots for a ticker.
func (s *Server) handleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	limit := getIntParam(r, "limit", 30)

	rows, err := s.history.GetSnapshots(ticker, limit)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":    ticker,
		"snapshots": rows,
		"count":     len(rows),
	})
}

// handleApprove approves an entry. The badge acts as a soft gate: a
// DO_NOT_APPROVE badge blocks the approval unless force=true is passed.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	force := r.URL.Query().Get("force") == "true"

	if !force {
		entry, err := s.pool.GetByTicker(ticker)
		if err != nil {
			respondRepoError(w, err)
			return
		}

		badgeInput := app.BadgeInput{
			FinalScore: entry.FinalScore,
			Change5d:   entry.Change5d,
			VolRatio:   entry.VolRatio,
		}
		if latest, err := s.reports.GetLatest(ticker); err == nil {
			badgeInput.Report = latest
		}
		if bars, err := s.history.GetBars(ticker, 60); err == nil && len(bars) >= 15 {
			closes := make([]float64, len(bars))
			for i, b := range bars {
				closes[i] = b.Close
			}
			rsi := indicator.RSI(closes, 14)
			badgeInput.RSI = &rsi
		}

		badge := app.ComputeBadge(badgeInput)
		if !badge.EnableApproval {
			respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error": "approval blocked by badge",
				"badge": badge,
			})
			return
		}
	}

	entry, err := s.pool.Approve(ticker)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	s.invalidatePool(r)
	respondJSON(w, http.StatusOK, map[string]interface{}{"entry": entry})
}

// handleReject rejects an entry with an operator-supplied reason.
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")

	var body struct {
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := s.pool.Reject(ticker, body.Reason)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	s.invalidatePool(r)
	respondJSON(w, http.StatusOK, map[string]interface{}{"entry": entry})
}

// handleNotes replaces the notes on an entry.
func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")

	var body struct {
		Notes string `json:"notes"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.pool.UpdateNotes(ticker, body.Notes); err != nil {
		respondRepoError(w, err)
		return
	}
	s.invalidatePool(r)
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleTrade moves an approved entry into trading and opens a simulated
// position at the current price.
func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")

	entry, err := s.pool.MarkTrading(ticker)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	price := entry.Close
	if entry.RealtimePrice != nil {
		price = *entry.RealtimePrice
	}
	position, err := s.simulator.Open(ticker, price)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"entry":   entry,
			"warning": err.Error(),
		})
		return
	}

	s.invalidatePool(r)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entry":    entry,
		"position": position,
	})
}

// handleComplete closes the simulated position and completes the entry.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")

	entry, err := s.pool.MarkCompleted(ticker)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	price := entry.Close
	if entry.RealtimePrice != nil {
		price = *entry.RealtimePrice
	}
	result, err := s.simulator.Close(ticker, price)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"entry":   entry,
			"warning": err.Error(),
		})
		return
	}

	s.invalidatePool(r)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entry":  entry,
		"result": result,
	})
}

// handleGetPositions lists open simulated positions.
func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	positions := s.simulator.OpenPositions()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"count":     len(positions),
	})
}

func (s *Server) invalidatePool(r *http.Request) {
	if s.poolCache != nil {
		s.poolCache.Invalidate(r.Context())
	}
}
