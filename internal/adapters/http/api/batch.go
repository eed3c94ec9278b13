// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/openscout/gridiron/internal/domain/model"
)

// Per-item batch intake statuses.
const (
	statusAccepted     = "accepted"
	statusDuplicate    = "duplicate"
	statusInvalid      = "invalid"
	statusBackpressure = "backpressure"
)

// batchRequest mirrors the OpenAPI schema for POST /api/v1/evaluations/batch.
type batchRequest struct {
	Submissions []model.Submission `json:"submissions"`
}

// batchItemResult reports the intake outcome for one submission. The
// submission id is always echoed back, including ids the server minted
// for items that arrived without one.
type batchItemResult struct {
	SubmissionID string `json:"submission_id"`
	AthleteID    string `json:"athlete_id,omitempty"`
	Status       string `json:"status"`
	Detail       string `json:"detail,omitempty"`
}

// batchResponse acknowledges a batch. Accepted counts submissions the
// workers will evaluate; duplicates and invalid items are final.
type batchResponse struct {
	Accepted int               `json:"accepted"`
	Results  []batchItemResult `json:"results"`
}

// BatchHandler handles async intake requests.
type BatchHandler struct {
	deps Dependencies
}

// NewBatchHandler creates a new batch intake handler.
func NewBatchHandler(deps Dependencies) *BatchHandler {
	return &BatchHandler{deps: deps}
}

// HandlePostBatch handles POST /api/v1/evaluations/batch requests.
// Dedupe happens here, before the queue: a submission id that was seen
// before is acknowledged as a duplicate without burning queue capacity.
// A submission the queue refuses is unrecorded again so the client can
// retry it under the same id.
func (h *BatchHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorFor(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	if len(body.Submissions) == 0 {
		writeErrorFor(w, fmt.Errorf("%w: empty batch", ErrBadRequest))
		return
	}

	ctx := r.Context()
	resp := batchResponse{Results: make([]batchItemResult, 0, len(body.Submissions))}
	backpressured := 0

	for _, sub := range body.Submissions {
		if strings.TrimSpace(sub.SubmissionID) == "" {
			sub.SubmissionID = uuid.New().String()
		}
		item := batchItemResult{
			SubmissionID: sub.SubmissionID,
			AthleteID:    sub.Athlete.Key(),
		}

		if err := sub.Validate(); err != nil {
			item.Status = statusInvalid
			item.Detail = err.Error()
			resp.Results = append(resp.Results, item)
			continue
		}
		if h.deps.SeenAndRecord(ctx, sub.SubmissionID) {
			item.Status = statusDuplicate
			resp.Results = append(resp.Results, item)
			continue
		}
		if !h.deps.Enqueue(ctx, sub) {
			h.deps.Unrecord(ctx, sub.SubmissionID)
			item.Status = statusBackpressure
			backpressured++
			resp.Results = append(resp.Results, item)
			continue
		}

		item.Status = statusAccepted
		resp.Accepted++
		resp.Results = append(resp.Results, item)
	}

	// A batch the queue rejected wholesale is an outage signal, not a
	// partial acknowledgement.
	if backpressured == len(body.Submissions) {
		writeErrorFor(w, fmt.Errorf("%w: 0 of %d submissions accepted", ErrBackpressure, len(body.Submissions)))
		return
	}

	writeJSON(w, http.StatusAccepted, resp)
}
