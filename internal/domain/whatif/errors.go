package whatif

import "errors"

// Sentinel kinds for what-if errors.
var (
	// ErrBadCandidate flags malformed candidate configuration. The
	// whole request fails; the caller must fix the config.
	ErrBadCandidate = errors.New("invalid what-if candidate")

	// ErrInsufficientData marks a candidate with no numeric anchor to
	// search from. Always recovered locally: the candidate is skipped,
	// the request continues.
	ErrInsufficientData = errors.New("candidate has no numeric anchor")

	// ErrNoTarget flags a solve call with an out-of-range target tier.
	ErrNoTarget = errors.New("invalid target tier")
)
