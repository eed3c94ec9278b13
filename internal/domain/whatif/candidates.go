package whatif

import (
	"fmt"

	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/internal/domain/types"
)

// Direction says which way a candidate statistic improves.
type Direction string

// Improvement directions.
const (
	HigherBetter Direction = "higher_better"
	LowerBetter  Direction = "lower_better"
)

// Candidate is one adjustable statistic the solver may search over.
// Step is the reporting granularity: recommendations snap to it so a
// coach reads "4.58s", not a binary-search float.
type Candidate struct {
	Field     string    `json:"field" koanf:"field"`
	Min       float64   `json:"min" koanf:"min"`
	Max       float64   `json:"max" koanf:"max"`
	Step      float64   `json:"step" koanf:"step"`
	Direction Direction `json:"direction" koanf:"direction"`
}

// Validate rejects malformed candidate configuration up front; a typo
// here would otherwise burn classifier queries probing nothing.
func (c Candidate) Validate() error {
	switch {
	case c.Field == "":
		return fmt.Errorf("%w: empty field", ErrBadCandidate)
	case c.Min >= c.Max:
		return fmt.Errorf("%w: %s bounds %v..%v", ErrBadCandidate, c.Field, c.Min, c.Max)
	case c.Step <= 0:
		return fmt.Errorf("%w: %s step %v", ErrBadCandidate, c.Field, c.Step)
	case c.Direction != HigherBetter && c.Direction != LowerBetter:
		return fmt.Errorf("%w: %s direction %q", ErrBadCandidate, c.Field, c.Direction)
	}
	return nil
}

// bound returns the fully-improved end of the candidate's range.
func (c Candidate) bound() float64 {
	if c.Direction == LowerBetter {
		return c.Min
	}
	return c.Max
}

// clampAnchor pulls the athlete's current value into the search range.
func (c Candidate) clampAnchor(v float64) float64 {
	if v < c.Min {
		return c.Min
	}
	if v > c.Max {
		return c.Max
	}
	return v
}

// DefaultCandidates returns the production search set for a position.
// The returned slice is fresh on every call; callers may mutate it.
func DefaultCandidates(pos types.Position) []Candidate {
	switch pos {
	case types.QB:
		return []Candidate{
			{Field: model.FieldForty, Min: 4.4, Max: 5.4, Step: 0.01, Direction: LowerBetter},
			{Field: model.FieldSeniorYPG, Min: 50, Max: 500, Step: 5, Direction: HigherBetter},
			{Field: model.FieldSeniorTDs, Min: 0, Max: 70, Step: 1, Direction: HigherBetter},
			{Field: model.FieldVertical, Min: 20, Max: 45, Step: 0.5, Direction: HigherBetter},
		}
	case types.RB:
		return []Candidate{
			{Field: model.FieldForty, Min: 4.3, Max: 5.2, Step: 0.01, Direction: LowerBetter},
			{Field: model.FieldSeniorYPG, Min: 30, Max: 300, Step: 5, Direction: HigherBetter},
			{Field: model.FieldSeniorYPC, Min: 3.0, Max: 12.0, Step: 0.1, Direction: HigherBetter},
			{Field: model.FieldVertical, Min: 22, Max: 45, Step: 0.5, Direction: HigherBetter},
		}
	case types.WR:
		return []Candidate{
			{Field: model.FieldForty, Min: 4.3, Max: 5.2, Step: 0.01, Direction: LowerBetter},
			{Field: model.FieldRecYPG, Min: 20, Max: 200, Step: 5, Direction: HigherBetter},
			{Field: model.FieldSeniorRec, Min: 10, Max: 150, Step: 1, Direction: HigherBetter},
			{Field: model.FieldVertical, Min: 24, Max: 46, Step: 0.5, Direction: HigherBetter},
		}
	}
	return nil
}
