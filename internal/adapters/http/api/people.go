package api

import (
	"net/http"
)

// PeopleHandler serves the people read views.
type PeopleHandler struct {
	deps Dependencies
}

// NewPeopleHandler creates a new people handler.
func NewPeopleHandler(deps Dependencies) *PeopleHandler {
	return &PeopleHandler{deps: deps}
}

// HandleList handles GET /api/people. Supports ?risk=<level> to keep only
// people at or above that risk and ?overdue=1 to keep only overdue people.
func (h *PeopleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	risk := r.URL.Query().Get("risk")
	overdueOnly := r.URL.Query().Get("overdue") == "1"

	people, err := h.deps.People(r.Context(), risk, overdueOnly)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

// HandleGet handles GET /api/people/{id}.
func (h *PeopleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	detail, err := h.deps.Person(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
