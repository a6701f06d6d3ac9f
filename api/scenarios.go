/*
scenarios.go - Demo scenario handlers

PURPOSE:
  Lets a client list the demo farm inputs and evaluate one by ID without
  building the form by hand. Scenarios never touch the store; they are
  evaluated against the live programs and assumption table.

USAGE VIA API:
  GET  /api/scenarios
  POST /api/scenarios/default-form/evaluate

SEE ALSO:
  - scenarios/: Scenario definitions
  - handlers.go: Evaluate
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/rebate-engine/scenarios"
)

// ListScenarios returns every demo scenario with its input.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	all := scenarios.All()
	dtos := make([]ScenarioDTO, len(all))
	for i, s := range all {
		dtos[i] = ScenarioDTO{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Input:       FarmInputRequestFrom(s.Input),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// EvaluateScenario evaluates a demo scenario.
// POST /api/scenarios/{id}/evaluate
func (h *Handler) EvaluateScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := scenarios.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Scenario not found", err)
		return
	}
	h.evaluate(w, r, FarmInputRequestFrom(s.Input))
}
