// Package api serves the dashboard HTTP API.
//
// Handlers are spread across files by resource: pool endpoints in
// handlers_pool.go, report endpoints in handlers_reports.go, and admin
// triggers in handlers_admin.go.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"stockgravity/app"
	"stockgravity/broker"
	"stockgravity/cache"
	"stockgravity/database"
	"stockgravity/report"
)

// Server hosts the dashboard API.
type Server struct {
	pool      *database.PoolRepository
	history   *database.HistoryRepository
	reports   *database.ReportRepository
	maint     *database.MaintenanceDB
	poolCache *cache.PoolCache
	simulator *broker.Simulator

	pipeline    *app.Pipeline
	reevaluator *app.Reevaluator
	generator   *report.Generator

	httpServer *http.Server
}

// NewServer wires the API over its dependencies.
func NewServer(pool *database.PoolRepository, history *database.HistoryRepository,
	reports *database.ReportRepository, maint *database.MaintenanceDB,
	poolCache *cache.PoolCache, simulator *broker.Simulator,
	pipeline *app.Pipeline, reevaluator *app.Reevaluator, generator *report.Generator) *Server {
	return &Server{
		pool:        pool,
		history:     history,
		reports:     reports,
		maint:       maint,
		poolCache:   poolCache,
		simulator:   simulator,
		pipeline:    pipeline,
		reevaluator: reevaluator,
		generator:   generator,
	}
}

// Start begins serving on the given port. Blocks until the server stops.
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/pool", s.handleGetPool)
	mux.HandleFunc("GET /api/pool/{ticker}", s.handleGetEntry)
	mux.HandleFunc("GET /api/pool/{ticker}/history", s.handleGetHistory)
	mux.HandleFunc("GET /api/pool/{ticker}/snapshots", s.handleGetSnapshots)
	mux.HandleFunc("POST /api/pool/{ticker}/approve", s.handleApprove)
	mux.HandleFunc("POST /api/pool/{ticker}/reject", s.handleReject)
	mux.HandleFunc("POST /api/pool/{ticker}/notes", s.handleNotes)
	mux.HandleFunc("POST /api/pool/{ticker}/trade", s.handleTrade)
	mux.HandleFunc("POST /api/pool/{ticker}/complete", s.handleComplete)
	mux.HandleFunc("GET /api/positions", s.handleGetPositions)

	mux.HandleFunc("GET /api/reports", s.handleGetReports)
	mux.HandleFunc("GET /api/reports/{ticker}", s.handleGetLatestReport)

	mux.HandleFunc("POST /api/admin/pipeline", s.handleRunPipeline)
	mux.HandleFunc("POST /api/admin/reevaluate", s.handleReevaluate)
	mux.HandleFunc("POST /api/admin/sync-reports", s.handleSyncReports)
	mux.HandleFunc("POST /api/admin/generate-reports", s.handleGenerateReports)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      corsMiddleware(loggingMiddleware(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	log.Printf("🚀 Dashboard API listening on :%d", port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleHealth reports liveness and pings the database so load balancers
// can tell a healthy process from one with a dead connection.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	overall := "ok"
	dbStatus := "ok"
	if s.maint != nil {
		if err := s.maint.Conn().PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			overall = "degraded"
			dbStatus = "unreachable"
		}
	}

	respondJSON(w, status, map[string]interface{}{
		"status":   overall,
		"database": dbStatus,
		"time":     time.Now().Format(time.RFC3339),
	})
}

// corsMiddleware allows the dashboard frontend to call from any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}
