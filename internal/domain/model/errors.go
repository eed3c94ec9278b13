package model

import "errors"

// Sentinel kinds for athlete record errors.
var (
	ErrInvalidPosition = errors.New("unsupported position")
	ErrMissingIdentity = errors.New("athlete id or name required")
	ErrUnknownField    = errors.New("unknown stat field")
)

// ErrMissingSubmissionID rejects submissions without an idempotency key.
var ErrMissingSubmissionID = errors.New("submission id required")
