package impute

import "errors"

// Sentinel kinds for imputation errors. All three are configuration
// problems the caller has to fix; none are retryable.
var (
	ErrUnsupportedPosition = errors.New("no benchmark table for position")
	ErrUnknownDivision     = errors.New("unknown benchmark division")
	ErrMissingBenchmark    = errors.New("missing benchmark range")
)
