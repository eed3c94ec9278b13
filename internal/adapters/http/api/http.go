// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	service "github.com/openscout/gridiron/internal/app"

	"github.com/openscout/gridiron/internal/adapters/repository"
	"github.com/openscout/gridiron/internal/domain/dedupe"
	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service wiring behind it.
type Dependencies interface {
	dedupe.Deduper

	// EvaluateAthlete runs the synchronous evaluation pipeline.
	EvaluateAthlete(ctx context.Context, req service.EvaluateRequest) (model.Evaluation, error)

	// WhatIf runs the progress solver without publishing anything.
	WhatIf(ctx context.Context, req service.EvaluateRequest) (model.WhatIf, error)

	// Enqueue hands a submission to the async workers. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, sub model.Submission) bool

	// Read operations expose prospect board data.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, athleteID string) (Entry, error)
}

// Entry mirrors the read shape returned by board queries.
type Entry = repository.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	evaluationsHandler *EvaluationsHandler
	batchHandler       *BatchHandler
	whatIfHandler      *WhatIfHandler
	boardHandler       *BoardHandler
	rankHandler        *RankHandler
	dashboardHandler   *dashboardHandler
}

// NewServer creates a new API server with all handlers. maxBoardLimit
// caps the limit query parameter of board reads.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxBoardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		evaluationsHandler: NewEvaluationsHandler(deps),
		batchHandler:       NewBatchHandler(deps),
		whatIfHandler:      NewWhatIfHandler(deps),
		boardHandler:       NewBoardHandler(deps, maxBoardLimit),
		rankHandler:        NewRankHandler(deps),
		dashboardHandler:   newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/v1/evaluations", MetricsMiddleware(s.evaluationsHandler.HandlePostEvaluation, "evaluations"))
	mux.HandleFunc("/api/v1/evaluations/batch", MetricsMiddleware(s.batchHandler.HandlePostBatch, "evaluations_batch"))
	mux.HandleFunc("/api/v1/whatif", MetricsMiddleware(s.whatIfHandler.HandlePostWhatIf, "whatif"))
	mux.HandleFunc("/api/v1/board", MetricsMiddleware(s.boardHandler.HandleGetBoard, "board"))
	mux.HandleFunc("/api/v1/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: code, Detail: detail})
}

// writeErrorFor maps err through the status table and writes it.
func writeErrorFor(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
