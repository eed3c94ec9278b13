package model

import (
	"time"

	"github.com/openscout/gridiron/internal/domain/types"
)

// TierPrediction is the classifier's answer for one feature vector.
// Probabilities, when present, hold one entry per ordinal tier and sum
// to 1; Tier is the arg-max (or the tier that crossed the caller's
// threshold, in threshold query mode).
type TierPrediction struct {
	Tier          types.Tier `json:"tier"`
	Label         string     `json:"label"`
	Probabilities []float64  `json:"probabilities,omitempty"`
}

// Confidence returns the probability assigned to the predicted tier.
// ok is false when the backend returned a discrete class only.
func (p TierPrediction) Confidence() (float64, bool) {
	if len(p.Probabilities) != types.NumTiers || !p.Tier.Valid() {
		return 0, false
	}
	return p.Probabilities[p.Tier], true
}

// ProbabilityOf returns the probability assigned to the given tier.
func (p TierPrediction) ProbabilityOf(t types.Tier) (float64, bool) {
	if len(p.Probabilities) != types.NumTiers || !t.Valid() {
		return 0, false
	}
	return p.Probabilities[t], true
}

// ImputationFlags records, per imputable combine metric, whether the
// value fed to the model was filled in rather than caller-supplied.
// Built once per evaluation and never mutated afterwards.
type ImputationFlags struct {
	FortyYardDash bool `json:"forty_yard_dash"`
	VerticalJump  bool `json:"vertical_jump"`
	Shuttle       bool `json:"shuttle"`
	BroadJump     bool `json:"broad_jump"`
	BenchPress    bool `json:"bench_press"`
}

// Mark sets the flag for the given metric.
func (f *ImputationFlags) Mark(m types.Metric) {
	switch m {
	case types.FortyYardDash:
		f.FortyYardDash = true
	case types.VerticalJump:
		f.VerticalJump = true
	case types.Shuttle:
		f.Shuttle = true
	case types.BroadJump:
		f.BroadJump = true
	case types.BenchPress:
		f.BenchPress = true
	}
}

// Imputed reports whether the given metric was filled by the engine.
func (f ImputationFlags) Imputed(m types.Metric) bool {
	switch m {
	case types.FortyYardDash:
		return f.FortyYardDash
	case types.VerticalJump:
		return f.VerticalJump
	case types.Shuttle:
		return f.Shuttle
	case types.BroadJump:
		return f.BroadJump
	case types.BenchPress:
		return f.BenchPress
	}
	return false
}

// Count returns how many metrics were imputed.
func (f ImputationFlags) Count() int {
	n := 0
	for _, m := range types.Metrics() {
		if f.Imputed(m) {
			n++
		}
	}
	return n
}

// Any reports whether at least one metric was imputed.
func (f ImputationFlags) Any() bool {
	return f.Count() > 0
}

// Scores are the fixed-formula scalar summaries attached to every
// evaluation. All but Overall live in [0,1]; Overall is 0..100.
type Scores struct {
	Overall           float64 `json:"overall"`
	Performance       float64 `json:"performance_score"`
	Combine           float64 `json:"combine_score"`
	Upside            float64 `json:"upside_score"`
	UnderdogBonus     float64 `json:"underdog_bonus"`
	CombineConfidence float64 `json:"combine_confidence"`
}

// CandidateOutcome reports one what-if candidate's search result.
// When Success is false, To and Delta are zero and Reason says why
// (skipped, exhausted, or an upstream failure).
type CandidateOutcome struct {
	Field      string          `json:"field"`
	From       float64         `json:"from"`
	To         float64         `json:"to"`
	Delta      float64         `json:"delta"`
	Success    bool            `json:"success"`
	Skipped    bool            `json:"skipped,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Probes     int             `json:"probes"`
	Prediction *TierPrediction `json:"prediction,omitempty"`
}

// WhatIf is the progress-simulation outcome: every candidate tried plus
// the single smallest-change recommendation, if any candidate reached
// the target tier within its bounds.
type WhatIf struct {
	TargetTier  types.Tier         `json:"target_tier"`
	TargetLabel string             `json:"target_label"`
	Threshold   float64            `json:"probability_threshold"`
	Candidates  []CandidateOutcome `json:"candidates"`
	Best        *CandidateOutcome  `json:"recommendation,omitempty"`
	Reason      string             `json:"reason,omitempty"`
}

// Evaluation is the unit returned to callers: prediction, imputation
// metadata, scores, and the optional what-if guidance.
type Evaluation struct {
	EvaluationID string         `json:"evaluation_id"`
	AthleteID    string         `json:"athlete_id"`
	Name         string         `json:"name,omitempty"`
	Position     types.Position `json:"position"`

	Prediction TierPrediction  `json:"prediction"`
	Imputation ImputationFlags `json:"imputation_flags"`

	// DataCompletenessWarning is true when any combine metric was
	// imputed for this evaluation.
	DataCompletenessWarning bool `json:"data_completeness_warning"`

	Scores Scores  `json:"scores"`
	WhatIf *WhatIf `json:"what_if,omitempty"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}
