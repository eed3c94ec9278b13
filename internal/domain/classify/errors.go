package classify

import "errors"

// Sentinel kinds for classifier errors.
var (
	// ErrUnavailable means the backing model could not produce a
	// prediction: unreachable, timed out, or malformed output. The
	// orchestrator may retry it a bounded number of times.
	ErrUnavailable = errors.New("classifier unavailable")
)
