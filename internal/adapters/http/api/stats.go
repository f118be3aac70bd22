package api

import (
	"net/http"

	"github.com/rapporthq/rapport/internal/domain/types"
)

// StatsHandler serves the derived views and sync control.
type StatsHandler struct {
	deps Dependencies
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(deps Dependencies) *StatsHandler {
	return &StatsHandler{deps: deps}
}

// HandleStreaks handles GET /api/streaks.
func (h *StatsHandler) HandleStreaks(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.Streaks(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleStuck handles GET /api/pipeline/stuck.
func (h *StatsHandler) HandleStuck(w http.ResponseWriter, r *http.Request) {
	stuck, err := h.deps.Stuck(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if stuck == nil {
		stuck = []types.StuckPersonView{}
	}
	writeJSON(w, http.StatusOK, stuck)
}

// HandleSyncStatus handles GET /api/sync/status.
func (h *StatsHandler) HandleSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.SyncStatuses())
}

// HandleSync handles POST /api/sync, kicking off a background sync pass.
func (h *StatsHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if !h.deps.TriggerSync() {
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
