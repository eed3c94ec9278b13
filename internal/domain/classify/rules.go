package classify

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/openscout/gridiron/internal/domain/derive"
	"github.com/openscout/gridiron/internal/domain/impute"
	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/internal/domain/types"
)

// Rule-model constants. Bases and bonuses carry over from the
// production composite; the check pass ratio is the 60% rule.
const (
	checkPassRatio = 0.6

	baseWeight      = 0.6
	componentWeight = 0.4

	// scoreDecay controls how fast tier probability mass falls off
	// with distance from a tier's score center.
	scoreDecay = 12.0

	// trajectorySigma approximates one standard deviation of season
	// over season ypg growth in the training data.
	trajectorySigma = 35.0

	maxComposite = 100.0
)

// tierBases are the composite bases per achieved tier, indexed by tier.
var tierBases = [types.NumTiers]float64{30, 50, 70, 90}

// tierCenters anchor the probability spread, indexed by tier.
var tierCenters = [types.NumTiers]float64{30, 50, 70, 90}

// production thresholds per position, indexed by tier low to high.
type prodThresholds struct {
	rate [types.NumTiers]float64
	tds  [types.NumTiers]float64
}

var defaultThresholds = map[types.Position]prodThresholds{
	types.QB: {rate: [4]float64{120, 160, 200, 240}, tds: [4]float64{8, 12, 18, 24}},
	types.RB: {rate: [4]float64{50, 70, 90, 110}, tds: [4]float64{4, 6, 9, 12}},
	types.WR: {rate: [4]float64{40, 55, 70, 85}, tds: [4]float64{3, 4, 6, 8}},
}

// RuleBased is the in-process classifier: a deterministic composite of
// tier checks, benchmark percentiles, and bonus points, mapped onto a
// tier probability vector. It backs evaluations when no remote model
// endpoint is configured and serves as the test backend.
type RuleBased struct {
	table      impute.Table
	thresholds map[types.Position]prodThresholds
}

// RuleOption applies a configuration option to the RuleBased model.
type RuleOption func(*RuleBased)

// WithBenchmarks overrides the benchmark table the checks and
// percentiles score against.
func WithBenchmarks(t impute.Table) RuleOption {
	return func(r *RuleBased) {
		r.table = t
	}
}

// NewRuleBased creates the rule model against the production tables.
func NewRuleBased(opts ...RuleOption) *RuleBased {
	r := &RuleBased{
		table:      impute.DefaultTable(),
		thresholds: defaultThresholds,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify implements Classifier.
func (r *RuleBased) Classify(ctx context.Context, features map[string]float64) (model.TierPrediction, error) {
	select {
	case <-ctx.Done():
		return model.TierPrediction{}, fmt.Errorf("rule classify cancelled: %w", ctx.Err())
	default:
	}

	pos, ok := positionOf(features)
	if !ok {
		return model.TierPrediction{}, fmt.Errorf("%w: vector carries no position", ErrUnavailable)
	}

	composite := r.composite(pos, features)
	probs := spread(composite)

	tier := types.TierD3NAIA
	for t := types.TierD3NAIA; t <= types.TierPowerFive; t++ {
		if probs[t] >= probs[tier] {
			tier = t
		}
	}

	return model.TierPrediction{
		Tier:          tier,
		Label:         tier.Label(),
		Probabilities: probs,
	}, nil
}

// composite scores the vector 0..100 the way the production composite
// did: achieved-tier base, blended athletic/production/breadth
// components, then bonus points.
func (r *RuleBased) composite(pos types.Position, features map[string]float64) float64 {
	base := tierBases[types.TierD3NAIA]
	for t := types.TierPowerFive; t >= types.TierD3NAIA; t-- {
		if r.passesTier(pos, t, features) {
			base = tierBases[t]
			break
		}
	}

	components := []float64{
		r.athleticism(pos, features),
		r.production(pos, features),
		breadth(features),
	}
	score := base*baseWeight + stat.Mean(components, nil)*componentWeight
	score *= 1 + r.bonus(pos, features)/100

	return math.Max(0, math.Min(maxComposite, score))
}

// passesTier applies the tier's checks: five combine metrics at or
// better than the tier's benchmark midpoint plus the production rate
// and touchdown thresholds. A missing feature fails its check.
func (r *RuleBased) passesTier(pos types.Position, t types.Tier, features map[string]float64) bool {
	divs := types.DivisionsForTier(t)
	passed, total := 0, 0

	for _, m := range types.Metrics() {
		total++
		v, ok := features[string(m)]
		if !ok {
			continue
		}
		span, err := r.table.Span(pos, divs, m)
		if err != nil {
			continue
		}
		if m.LowerIsBetter() {
			if v <= span.Mid() {
				passed++
			}
		} else if v >= span.Mid() {
			passed++
		}
	}

	th := r.thresholds[pos]
	total++
	if rate, ok := primaryRateOf(pos, features); ok && rate >= th.rate[t] {
		passed++
	}
	total++
	if tds, ok := features[model.FieldSeniorTDs]; ok && tds >= th.tds[t] {
		passed++
	}

	return float64(passed)/float64(total) >= checkPassRatio
}

// athleticism is the mean direction-aware percentile of the combine
// metrics across the position's full benchmark span, 0..100.
func (r *RuleBased) athleticism(pos types.Position, features map[string]float64) float64 {
	pctls := r.percentiles(pos, features)
	if len(pctls) == 0 {
		return 0
	}
	return stat.Mean(pctls, nil) * 100
}

// percentiles returns the direction-aware benchmark percentile of each
// combine metric present in the vector.
func (r *RuleBased) percentiles(pos types.Position, features map[string]float64) []float64 {
	out := make([]float64, 0, len(types.Metrics()))
	for _, m := range types.Metrics() {
		v, ok := features[string(m)]
		if !ok {
			continue
		}
		span, err := r.table.FullSpan(pos, m)
		if err != nil || span.Width() <= 0 {
			continue
		}
		p := (v - span.Min) / span.Width()
		if m.LowerIsBetter() {
			p = 1 - p
		}
		out = append(out, math.Max(0, math.Min(1, p)))
	}
	return out
}

// production scores the primary rate against the top-tier threshold.
func (r *RuleBased) production(pos types.Position, features map[string]float64) float64 {
	rate, ok := primaryRateOf(pos, features)
	if !ok {
		return 0
	}
	top := r.thresholds[pos].rate[types.TierPowerFive]
	return math.Min(rate/top, 1) * 100
}

// breadth rewards records that demonstrate more than one dimension.
func breadth(features map[string]float64) float64 {
	signals := []string{
		derive.FeatTrajectory,
		derive.FeatAthleticPower,
		derive.FeatEfficiencyRatio,
		derive.FeatBMI,
		derive.FeatStateEfficiency,
	}
	present := 0
	for _, s := range signals {
		if _, ok := features[s]; ok {
			present++
		}
	}
	return float64(present) / float64(len(signals)) * 100
}

// bonus adds the production bonus points on top of the composite.
func (r *RuleBased) bonus(pos types.Position, features map[string]float64) float64 {
	fortyCut, shuttleCut := 4.5, 4.3
	if pos == types.QB {
		fortyCut, shuttleCut = 4.7, 4.4
	}

	b := 0.0
	if v, ok := features[model.FieldForty]; ok && v < fortyCut {
		b += 10
	}
	if v, ok := features[model.FieldShuttle]; ok && v < shuttleCut {
		b += 5
	}
	if v, ok := features[derive.FeatTrajectory]; ok && v > trajectorySigma {
		b += 5
	}
	if v, ok := features[derive.FeatStrongState]; ok && v == 1 {
		b += 3
	}
	if v, ok := features[model.FieldHoopsVert]; ok && v > 35 {
		b += 4
	}
	elite := 0
	for _, p := range r.percentiles(pos, features) {
		if p > 0.9 {
			elite++
		}
	}
	if elite >= 3 {
		b += 7
	}
	return b
}

// spread turns a composite score into the tier probability vector:
// exponential falloff from each tier's score center, normalized.
func spread(score float64) []float64 {
	probs := make([]float64, types.NumTiers)
	sum := 0.0
	for t := 0; t < types.NumTiers; t++ {
		probs[t] = math.Exp(-math.Abs(score-tierCenters[t]) / scoreDecay)
		sum += probs[t]
	}
	for t := range probs {
		probs[t] /= sum
	}
	return probs
}

func positionOf(features map[string]float64) (types.Position, bool) {
	switch {
	case features[derive.FeatPositionQB] == 1:
		return types.QB, true
	case features[derive.FeatPositionRB] == 1:
		return types.RB, true
	case features[derive.FeatPositionWR] == 1:
		return types.WR, true
	}
	return "", false
}

func primaryRateOf(pos types.Position, features map[string]float64) (float64, bool) {
	if pos == types.WR {
		if v, ok := features[model.FieldRecYPG]; ok {
			return v, true
		}
	}
	v, ok := features[model.FieldSeniorYPG]
	return v, ok
}
