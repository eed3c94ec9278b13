package model

import "strings"

// Submission is one athlete handed to the async intake pipeline.
// SubmissionID is the idempotency key: resubmitting the same id is a
// duplicate, not a second evaluation.
type Submission struct {
	SubmissionID string  `json:"submission_id"`
	Athlete      Athlete `json:"athlete"`
}

// Validate checks the submission can enter the pipeline.
func (s *Submission) Validate() error {
	if strings.TrimSpace(s.SubmissionID) == "" {
		return ErrMissingSubmissionID
	}
	return s.Athlete.Validate()
}
