package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"stockgravity/database"
)

// Admin triggers run the long jobs in the background and return
// immediately; progress lands in the service log.

// handleRunPipeline triggers a scoring run.
func (s *Server) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if err := s.pipeline.Run(ctx, today()); err != nil {
			log.Printf("⚠️ Pipeline run failed: %v", err)
		}
	}()
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "pipeline started"})
}

// handleReevaluate triggers a re-evaluation of approved entries.
func (s *Server) handleReevaluate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	dropped, err := s.reevaluator.Run(ctx, today())
	if err != nil {
		respondRepoError(w, err)
		return
	}
	s.invalidatePool(r)
	respondJSON(w, http.StatusOK, map[string]interface{}{"dropped": dropped})
}

// handleSyncReports reconciles report statuses with the pool lifecycle.
func (s *Server) handleSyncReports(w http.ResponseWriter, r *http.Request) {
	dropped, traded, reactivated, err := s.maint.SyncReportStatuses(r.Context())
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dropped":     dropped,
		"traded":      traded,
		"reactivated": reactivated,
	})
}

// handleGenerateReports generates reports for approved entries in the
// background.
func (s *Server) handleGenerateReports(w http.ResponseWriter, r *http.Request) {
	entries, err := s.pool.GetByStatus(database.StatusApproved)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := s.generator.GenerateForEntries(ctx, entries, today()); err != nil {
			log.Printf("⚠️ Report generation failed: %v", err)
		}
	}()
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":  "generation started",
		"entries": len(entries),
	})
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
