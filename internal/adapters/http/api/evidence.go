package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rapporthq/rapport/internal/adapters/sources"
	"github.com/rapporthq/rapport/internal/domain/model"
)

// evidenceRequest is the hand-capture payload for POST /api/evidence.
type evidenceRequest struct {
	Kind       string     `json:"kind"`
	OccurredAt time.Time  `json:"occurred_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	SourceRef  string     `json:"source_ref,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	People     []struct {
		ID          string   `json:"id,omitempty"`
		DisplayName string   `json:"display_name"`
		Roles       []string `json:"roles,omitempty"`
	} `json:"people,omitempty"`
	Notes []string `json:"notes,omitempty"`
}

var evidenceKinds = map[model.EvidenceKind]bool{
	model.KindMeeting: true,
	model.KindEmail:   true,
	model.KindMessage: true,
	model.KindCall:    true,
	model.KindNote:    true,
	model.KindPost:    true,
	model.KindManual:  true,
}

// EvidenceHandler accepts hand-captured interactions.
type EvidenceHandler struct {
	deps Dependencies
}

// NewEvidenceHandler creates a new evidence handler.
func NewEvidenceHandler(deps Dependencies) *EvidenceHandler {
	return &EvidenceHandler{deps: deps}
}

// HandleSubmit handles POST /api/evidence, feeding the item into the manual
// import path.
func (h *EvidenceHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req evidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !evidenceKinds[model.EvidenceKind(req.Kind)] {
		writeError(w, http.StatusBadRequest, "bad_request", ErrUnknownKind)
		return
	}
	if req.OccurredAt.IsZero() {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingTime)
		return
	}

	it := sources.Item{
		Evidence: model.Evidence{
			Kind:       model.EvidenceKind(req.Kind),
			OccurredAt: req.OccurredAt,
			EndedAt:    req.EndedAt,
			SourceRef:  req.SourceRef,
			Summary:    req.Summary,
		},
	}
	for _, p := range req.People {
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}
		roles := make([]model.Role, 0, len(p.Roles))
		for _, role := range p.Roles {
			roles = append(roles, model.Role(role))
		}
		it.People = append(it.People, model.Person{ID: id, DisplayName: p.DisplayName, Roles: roles})
		it.Evidence.PersonIDs = append(it.Evidence.PersonIDs, id)
	}
	for _, body := range req.Notes {
		it.Notes = append(it.Notes, model.Note{Body: body})
	}

	if err := h.deps.SubmitEvidence(r.Context(), it); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "imported"})
}
