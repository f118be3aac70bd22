// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rapporthq/rapport/internal/adapters/repository"
	"github.com/rapporthq/rapport/internal/adapters/sources"
	service "github.com/rapporthq/rapport/internal/app"
	"github.com/rapporthq/rapport/internal/domain/model"
	"github.com/rapporthq/rapport/internal/domain/outcomes"
	"github.com/rapporthq/rapport/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// People views.
	People(ctx context.Context, riskFilter string, overdueOnly bool) ([]types.PersonView, error)
	Person(ctx context.Context, id string) (types.PersonDetail, error)

	// Coaching queue.
	Active(ctx context.Context) ([]model.Outcome, error)
	CompletedToday(ctx context.Context) ([]model.Outcome, error)
	History(ctx context.Context) ([]model.Outcome, error)
	MarkCompleted(ctx context.Context, id string) error
	MarkDismissed(ctx context.Context, id string) error
	MarkInProgress(ctx context.Context, id string) error
	RecordRating(ctx context.Context, id string, rating int) error
	GenerateOutcomes(ctx context.Context) (int, error)

	// Derived views.
	Streaks(ctx context.Context) (types.StreakReport, error)
	Stuck(ctx context.Context) ([]types.StuckPersonView, error)

	// Sync control.
	SyncStatuses() []types.SourceStatus
	TriggerSync() bool

	// Hand capture.
	SubmitEvidence(ctx context.Context, it sources.Item) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	peopleHandler   *PeopleHandler
	outcomesHandler *OutcomesHandler
	statsHandler    *StatsHandler
	evidenceHandler *EvidenceHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		peopleHandler:   NewPeopleHandler(deps),
		outcomesHandler: NewOutcomesHandler(deps),
		statsHandler:    NewStatsHandler(deps),
		evidenceHandler: NewEvidenceHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)

	mux.HandleFunc("GET /api/people", MetricsMiddleware(s.peopleHandler.HandleList, "people"))
	mux.HandleFunc("GET /api/people/{id}", MetricsMiddleware(s.peopleHandler.HandleGet, "person"))

	mux.HandleFunc("GET /api/outcomes", MetricsMiddleware(s.outcomesHandler.HandleList, "outcomes"))
	mux.HandleFunc("POST /api/outcomes/generate", MetricsMiddleware(s.outcomesHandler.HandleGenerate, "outcomes_generate"))
	mux.HandleFunc("POST /api/outcomes/{id}/complete", MetricsMiddleware(s.outcomesHandler.HandleComplete, "outcome_complete"))
	mux.HandleFunc("POST /api/outcomes/{id}/dismiss", MetricsMiddleware(s.outcomesHandler.HandleDismiss, "outcome_dismiss"))
	mux.HandleFunc("POST /api/outcomes/{id}/progress", MetricsMiddleware(s.outcomesHandler.HandleProgress, "outcome_progress"))
	mux.HandleFunc("POST /api/outcomes/{id}/rating", MetricsMiddleware(s.outcomesHandler.HandleRating, "outcome_rating"))

	mux.HandleFunc("POST /api/evidence", MetricsMiddleware(s.evidenceHandler.HandleSubmit, "evidence_submit"))

	mux.HandleFunc("GET /api/streaks", MetricsMiddleware(s.statsHandler.HandleStreaks, "streaks"))
	mux.HandleFunc("GET /api/pipeline/stuck", MetricsMiddleware(s.statsHandler.HandleStuck, "pipeline_stuck"))
	mux.HandleFunc("GET /api/sync/status", MetricsMiddleware(s.statsHandler.HandleSyncStatus, "sync_status"))
	mux.HandleFunc("POST /api/sync", MetricsMiddleware(s.statsHandler.HandleSync, "sync"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps domain sentinels onto status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, outcomes.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, outcomes.ErrTerminal):
		writeError(w, http.StatusConflict, "already_resolved", err)
	case errors.Is(err, outcomes.ErrInvalidRating), errors.Is(err, outcomes.ErrNotCompleted):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrNoManualSource):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
