// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	service "github.com/openscout/gridiron/internal/app"

	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/internal/domain/types"
	"github.com/openscout/gridiron/internal/domain/whatif"
)

// evaluationRequest mirrors the OpenAPI schema for POST /api/v1/evaluations
// and POST /api/v1/whatif: one athlete record with the per-request knobs
// alongside it. Tier-valued knobs travel as display labels ("FCS",
// "Power 5"), never as raw ordinals.
type evaluationRequest struct {
	model.Athlete

	// TierHint steers imputation toward that tier's benchmark ranges.
	TierHint string `json:"tier_hint,omitempty"`

	// TargetDivision is the what-if target tier label. Empty means
	// classify first and aim one tier up.
	TargetDivision string `json:"target_division,omitempty"`

	IncludeWhatIf        bool    `json:"include_what_if,omitempty"`
	ProbabilityThreshold float64 `json:"probability_threshold,omitempty"`

	// Candidates override the per-position default search set.
	Candidates []whatif.Candidate `json:"candidates,omitempty"`
}

// toService resolves the label-valued knobs into a service request.
func (e evaluationRequest) toService() (service.EvaluateRequest, error) {
	req := service.EvaluateRequest{
		Athlete:       e.Athlete,
		IncludeWhatIf: e.IncludeWhatIf,
		Threshold:     e.ProbabilityThreshold,
		Candidates:    e.Candidates,
	}
	if e.TierHint != "" {
		t, ok := types.TierFromLabel(e.TierHint)
		if !ok {
			return service.EvaluateRequest{}, fmt.Errorf("%w: unknown tier_hint %q", ErrBadRequest, e.TierHint)
		}
		req.TierHint = &t
	}
	if e.TargetDivision != "" {
		t, ok := types.TierFromLabel(e.TargetDivision)
		if !ok {
			return service.EvaluateRequest{}, fmt.Errorf("%w: unknown target_division %q", ErrBadRequest, e.TargetDivision)
		}
		req.Target = &t
	}
	return req, nil
}

// EvaluationsHandler handles synchronous evaluation requests.
type EvaluationsHandler struct {
	deps Dependencies
}

// NewEvaluationsHandler creates a new evaluations handler.
func NewEvaluationsHandler(deps Dependencies) *EvaluationsHandler {
	return &EvaluationsHandler{deps: deps}
}

// HandlePostEvaluation handles POST /api/v1/evaluations requests.
func (h *EvaluationsHandler) HandlePostEvaluation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var body evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorFor(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	req, err := body.toService()
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	eval, err := h.deps.EvaluateAthlete(r.Context(), req)
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	writeJSON(w, http.StatusOK, eval)
}
