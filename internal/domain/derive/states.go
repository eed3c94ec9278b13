package derive

import "strings"

// StateTalent tiers. Tier 4 states produce a disproportionate share of
// Power 5 signees; everything not listed scores the floor.
const (
	stateTierTop   = 4.0
	stateTierHigh  = 3.0
	stateTierMid   = 2.0
	stateTierFloor = 1.0
)

// StateTable scores a US state's recruiting talent density.
type StateTable struct {
	scores map[string]float64
	strong map[string]bool
}

// Score returns the talent tier for a state code, case-insensitive.
// Unknown or empty states score the floor tier.
func (t StateTable) Score(state string) float64 {
	if v, ok := t.scores[normState(state)]; ok {
		return v
	}
	return stateTierFloor
}

// Strong reports whether the state is one of the four highest-volume
// recruiting states.
func (t StateTable) Strong(state string) bool {
	return t.strong[normState(state)]
}

func normState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// DefaultStateTable builds the production state-talent tiers.
func DefaultStateTable() StateTable {
	t := StateTable{
		scores: make(map[string]float64, 33),
		strong: make(map[string]bool, 4),
	}
	top := []string{"TX", "FL", "CA", "GA"}
	high := []string{"OH", "PA", "NC", "VA", "MI", "IL", "LA", "AL", "TN", "SC", "AZ", "NJ", "MD"}
	mid := []string{"IN", "MO", "WI", "MN", "IA", "KY", "OK", "AR", "MS", "KS", "CO", "OR", "WA", "CT", "NV", "UT"}
	for _, s := range top {
		t.scores[s] = stateTierTop
		t.strong[s] = true
	}
	for _, s := range high {
		t.scores[s] = stateTierHigh
	}
	for _, s := range mid {
		t.scores[s] = stateTierMid
	}
	return t
}
