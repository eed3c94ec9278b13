package impute

import (
	"fmt"

	"github.com/openscout/gridiron/internal/domain/types"
)

// Range is an inclusive realistic value range for one combine metric.
type Range struct {
	Min float64 `json:"min" koanf:"min"`
	Max float64 `json:"max" koanf:"max"`
}

// Mid returns the range midpoint.
func (r Range) Mid() float64 { return (r.Min + r.Max) / 2 }

// Width returns the range span.
func (r Range) Width() float64 { return r.Max - r.Min }

// Contains reports whether v lies inside the range, inclusive.
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// merge widens r to cover other.
func (r Range) merge(other Range) Range {
	if other.Min < r.Min {
		r.Min = other.Min
	}
	if other.Max > r.Max {
		r.Max = other.Max
	}
	return r
}

// Table holds the benchmark ranges keyed position, division, metric.
// It is built once at startup and read concurrently without locking;
// nothing mutates it after construction.
type Table map[types.Position]map[types.Division]map[types.Metric]Range

// Range returns the benchmark range for one cell.
func (t Table) Range(pos types.Position, div types.Division, m types.Metric) (Range, error) {
	divs, ok := t[pos]
	if !ok {
		return Range{}, fmt.Errorf("%w: %q", ErrUnsupportedPosition, pos)
	}
	metrics, ok := divs[div]
	if !ok {
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownDivision, div)
	}
	r, ok := metrics[m]
	if !ok {
		return Range{}, fmt.Errorf("%w: %s/%s/%s", ErrMissingBenchmark, pos, div, m)
	}
	return r, nil
}

// Span merges the benchmark ranges of the given divisions into one.
// Used when a hint names a tier that spans two table rows (D3/NAIA).
func (t Table) Span(pos types.Position, divs []types.Division, m types.Metric) (Range, error) {
	if len(divs) == 0 {
		return Range{}, fmt.Errorf("%w: no divisions", ErrUnknownDivision)
	}
	out, err := t.Range(pos, divs[0], m)
	if err != nil {
		return Range{}, err
	}
	for _, d := range divs[1:] {
		r, err := t.Range(pos, d, m)
		if err != nil {
			return Range{}, err
		}
		out = out.merge(r)
	}
	return out, nil
}

// FullSpan merges the metric's range across every division row for the
// position, from the worst floor to the best ceiling.
func (t Table) FullSpan(pos types.Position, m types.Metric) (Range, error) {
	return t.Span(pos, types.Divisions(), m)
}

// Validate checks that every position has every division row and every
// row carries all five metrics with sane bounds.
func (t Table) Validate() error {
	for _, pos := range types.Positions() {
		for _, div := range types.Divisions() {
			for _, m := range types.Metrics() {
				r, err := t.Range(pos, div, m)
				if err != nil {
					return err
				}
				if r.Min <= 0 || r.Max <= r.Min {
					return fmt.Errorf("%w: %s/%s/%s has bounds %v..%v",
						ErrMissingBenchmark, pos, div, m, r.Min, r.Max)
				}
			}
		}
	}
	return nil
}

// row is a literal helper: forty, vertical, shuttle, broad, bench.
func row(forty, vert, shuttle, broad, bench Range) map[types.Metric]Range {
	return map[types.Metric]Range{
		types.FortyYardDash: forty,
		types.VerticalJump:  vert,
		types.Shuttle:       shuttle,
		types.BroadJump:     broad,
		types.BenchPress:    bench,
	}
}

func rng(min, max float64) Range { return Range{Min: min, Max: max} }

// DefaultTable returns the production benchmark table. Values are the
// realistic per-division combine ranges the models were trained
// against; changing them shifts every imputed evaluation.
func DefaultTable() Table {
	return Table{
		types.QB: {
			types.PowerFive: row(rng(4.6, 4.9), rng(30, 34), rng(4.3, 4.6), rng(108, 118), rng(10, 16)),
			types.FCS:       row(rng(4.7, 5.0), rng(28, 32), rng(4.4, 4.7), rng(102, 112), rng(8, 14)),
			types.DivTwo:    row(rng(4.8, 5.1), rng(26, 30), rng(4.5, 4.8), rng(96, 106), rng(7, 12)),
			types.DivThree:  row(rng(4.9, 5.3), rng(24, 28), rng(4.6, 4.9), rng(90, 100), rng(5, 10)),
			types.NAIA:      row(rng(4.8, 5.2), rng(25, 29), rng(4.5, 4.8), rng(92, 102), rng(6, 11)),
		},
		types.RB: {
			types.PowerFive: row(rng(4.2, 4.4), rng(34, 38), rng(4.0, 4.3), rng(120, 130), rng(18, 26)),
			types.FCS:       row(rng(4.3, 4.6), rng(32, 36), rng(4.1, 4.4), rng(110, 120), rng(16, 24)),
			types.DivTwo:    row(rng(4.4, 4.7), rng(30, 34), rng(4.2, 4.5), rng(100, 110), rng(14, 21)),
			types.DivThree:  row(rng(4.5, 4.8), rng(28, 32), rng(4.3, 4.6), rng(95, 105), rng(12, 18)),
			types.NAIA:      row(rng(4.4, 4.7), rng(29, 33), rng(4.2, 4.5), rng(98, 108), rng(13, 19)),
		},
		types.WR: {
			types.PowerFive: row(rng(4.4, 4.7), rng(34, 38), rng(4.1, 4.4), rng(120, 130), rng(12, 18)),
			types.FCS:       row(rng(4.5, 4.8), rng(33, 37), rng(4.2, 4.5), rng(110, 120), rng(10, 16)),
			types.DivTwo:    row(rng(4.6, 4.9), rng(31, 35), rng(4.3, 4.6), rng(100, 110), rng(9, 14)),
			types.DivThree:  row(rng(4.7, 5.0), rng(29, 33), rng(4.4, 4.7), rng(95, 105), rng(7, 12)),
			types.NAIA:      row(rng(4.6, 4.9), rng(30, 34), rng(4.3, 4.6), rng(98, 108), rng(8, 13)),
		},
	}
}
