package api

import (
	"errors"
	"net/http"

	service "github.com/openscout/gridiron/internal/app"

	"github.com/openscout/gridiron/internal/adapters/repository"
	"github.com/openscout/gridiron/internal/domain/classify"
	"github.com/openscout/gridiron/internal/domain/impute"
	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/internal/domain/whatif"
)

// Sentinel kinds for API errors.
var (
	// ErrBadRequest flags a request the handler rejected before it
	// reached the service: malformed JSON, unknown tier labels, empty
	// batches.
	ErrBadRequest = errors.New("bad request")

	// ErrBackpressure means the intake queue refused the submission.
	ErrBackpressure = errors.New("backpressure")
)

// statusFor maps a pipeline error onto an HTTP status and a stable
// machine-readable code. Configuration and validation failures are the
// caller's to fix; a classifier outage is retryable and reported as
// unavailable rather than as a server fault.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, classify.ErrUnavailable):
		return http.StatusServiceUnavailable, "classifier_unavailable"
	case errors.Is(err, ErrBackpressure):
		return http.StatusServiceUnavailable, "backpressure"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, model.ErrInvalidPosition),
		errors.Is(err, model.ErrMissingIdentity),
		errors.Is(err, model.ErrUnknownField),
		errors.Is(err, model.ErrMissingSubmissionID),
		errors.Is(err, service.ErrBadTierHint),
		errors.Is(err, whatif.ErrBadCandidate),
		errors.Is(err, whatif.ErrNoTarget),
		errors.Is(err, impute.ErrUnsupportedPosition),
		errors.Is(err, impute.ErrUnknownDivision),
		errors.Is(err, impute.ErrMissingBenchmark):
		return http.StatusBadRequest, "bad_request"
	}
	return http.StatusInternalServerError, "internal_error"
}
