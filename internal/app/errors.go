package service

import "errors"

// Sentinel kinds for evaluation request errors.
var (
	// ErrBadTierHint rejects imputation hints outside the tier ladder.
	ErrBadTierHint = errors.New("invalid tier hint")
)
