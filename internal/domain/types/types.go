// Package types contains common types used across the application
package types

// Position identifies the athlete's playing position. Only the three
// skill positions the evaluation models were trained on are supported.
type Position string

// Supported positions.
const (
	QB Position = "qb"
	RB Position = "rb"
	WR Position = "wr"
)

// Valid reports whether p is one of the supported positions.
func (p Position) Valid() bool {
	switch p {
	case QB, RB, WR:
		return true
	}
	return false
}

// Positions returns all supported positions in a stable order.
func Positions() []Position {
	return []Position{QB, RB, WR}
}

// Division identifies a college football division used to key the
// combine benchmark tables. D3 and NAIA stay separate rows here even
// though they share the lowest tier.
type Division string

// Benchmark table divisions, best to worst.
const (
	PowerFive Division = "P5"
	FCS       Division = "FCS"
	DivTwo    Division = "D2"
	DivThree  Division = "D3"
	NAIA      Division = "NAIA"
)

// Divisions returns all benchmark divisions ordered best to worst.
func Divisions() []Division {
	return []Division{PowerFive, FCS, DivTwo, DivThree, NAIA}
}

// Tier is the ordinal class id produced by the classifier: 0 is the
// lowest tier, 3 the highest. The id-to-label mapping is fixed for the
// whole process; the trained model and every consumer rely on it.
type Tier int

// Ordinal tiers, low to high.
const (
	TierD3NAIA Tier = iota
	TierD2
	TierFCS
	TierPowerFive

	// NumTiers is the size of the probability vector the classifier returns.
	NumTiers = 4
)

var tierLabels = [NumTiers]string{"D3/NAIA", "D2", "FCS", "Power 5"}

// Label returns the canonical display label for the tier, or "unknown"
// for an out-of-range id.
func (t Tier) Label() string {
	if t < 0 || int(t) >= NumTiers {
		return "unknown"
	}
	return tierLabels[t]
}

// Valid reports whether t is one of the four ordinal tiers.
func (t Tier) Valid() bool {
	return t >= 0 && int(t) < NumTiers
}

// Next returns the next tier up and true, or t and false when already
// at the top.
func (t Tier) Next() (Tier, bool) {
	if t >= TierPowerFive {
		return t, false
	}
	return t + 1, true
}

// TierFromLabel resolves a display label back to its ordinal tier.
// Matching is exact; callers normalize upstream.
func TierFromLabel(label string) (Tier, bool) {
	for i, l := range tierLabels {
		if l == label {
			return Tier(i), true
		}
	}
	return 0, false
}

// DivisionsForTier maps a tier to the benchmark division rows that
// describe it. The lowest tier spans both the D3 and NAIA rows.
func DivisionsForTier(t Tier) []Division {
	switch t {
	case TierPowerFive:
		return []Division{PowerFive}
	case TierFCS:
		return []Division{FCS}
	case TierD2:
		return []Division{DivTwo}
	case TierD3NAIA:
		return []Division{DivThree, NAIA}
	}
	return nil
}

// Metric names a combine test. These five are the imputable fields.
type Metric string

// Imputable combine metrics.
const (
	FortyYardDash Metric = "forty_yard_dash"
	VerticalJump  Metric = "vertical_jump"
	Shuttle       Metric = "shuttle"
	BroadJump     Metric = "broad_jump"
	BenchPress    Metric = "bench_press"
)

// Metrics returns the imputable combine metrics in a stable order.
func Metrics() []Metric {
	return []Metric{FortyYardDash, VerticalJump, Shuttle, BroadJump, BenchPress}
}

// LowerIsBetter reports whether a smaller value of the metric is the
// better athletic result (timed drills).
func (m Metric) LowerIsBetter() bool {
	return m == FortyYardDash || m == Shuttle
}
