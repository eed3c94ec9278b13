// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WhatIfHandler handles standalone progress-simulation requests.
type WhatIfHandler struct {
	deps Dependencies
}

// NewWhatIfHandler creates a new what-if handler.
func NewWhatIfHandler(deps Dependencies) *WhatIfHandler {
	return &WhatIfHandler{deps: deps}
}

// HandlePostWhatIf handles POST /api/v1/whatif requests. The body is
// the same shape as a sync evaluation; include_what_if is ignored and
// nothing reaches the board.
func (h *WhatIfHandler) HandlePostWhatIf(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.deps.WhatIf(r.Context(), req)
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
