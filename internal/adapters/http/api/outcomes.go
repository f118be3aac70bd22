package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rapporthq/rapport/internal/domain/model"
)

// OutcomesHandler serves the coaching queue and its transitions.
type OutcomesHandler struct {
	deps Dependencies
}

// NewOutcomesHandler creates a new outcomes handler.
func NewOutcomesHandler(deps Dependencies) *OutcomesHandler {
	return &OutcomesHandler{deps: deps}
}

// HandleList handles GET /api/outcomes. The default bucket is the active
// queue; ?bucket=completed returns today's completions, ?bucket=history all
// resolved outcomes.
func (h *OutcomesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		out []model.Outcome
		err error
	)
	switch r.URL.Query().Get("bucket") {
	case "", "active":
		out, err = h.deps.Active(r.Context())
	case "completed":
		out, err = h.deps.CompletedToday(r.Context())
	case "history":
		out, err = h.deps.History(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if out == nil {
		out = []model.Outcome{}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGenerate handles POST /api/outcomes/generate.
func (h *OutcomesHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	added, err := h.deps.GenerateOutcomes(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

// HandleComplete handles POST /api/outcomes/{id}/complete.
func (h *OutcomesHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.deps.MarkCompleted)
}

// HandleDismiss handles POST /api/outcomes/{id}/dismiss.
func (h *OutcomesHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.deps.MarkDismissed)
}

// HandleProgress handles POST /api/outcomes/{id}/progress.
func (h *OutcomesHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.deps.MarkInProgress)
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

// HandleRating handles POST /api/outcomes/{id}/rating.
func (h *OutcomesHandler) HandleRating(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.deps.RecordRating(r.Context(), id, req.Rating); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *OutcomesHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) error) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := fn(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
