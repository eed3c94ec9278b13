// Package whatif searches for the smallest change to a single statistic
// that moves an athlete's predicted tier to a target.
//
// The search is a bounded bisection per candidate against a black-box
// classifier. It assumes the classifier is locally monotonic along the
// searched direction; trained models do not guarantee that, so the
// result is an approximation of the true minimal change. Candidates run
// independently and concurrently; the smallest absolute change among
// the successful ones becomes the recommendation.
package whatif

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openscout/gridiron/internal/domain/classify"
	"github.com/openscout/gridiron/internal/domain/derive"
	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/internal/domain/types"
)

// Default solver configuration constants.
const (
	// defaultMaxIterations bounds the bisection; nine probes resolve
	// a candidate range to roughly a thousandth of its width.
	defaultMaxIterations = 9

	// defaultConcurrency caps simultaneous candidate searches so the
	// backing model service is not flooded.
	defaultConcurrency = 3

	// defaultBudget is the wall-clock ceiling for one whole solve,
	// distinct from the per-query timeout the classifier client owns.
	defaultBudget = 20 * time.Second

	defaultThreshold = 0.5
)

// Search outcome reasons surfaced on candidate outcomes.
const (
	reasonUnreachable = "target unreachable within bounds"
	reasonNoValue     = "no sufficient value within bounds"
	reasonUnavailable = "classifier unavailable"
	reasonBudget      = "search budget exhausted"
)

// Option applies a configuration option to the Solver.
type Option func(*Solver)

// WithDeriver overrides the feature deriver used to rebuild dependent
// features at every probe.
func WithDeriver(d *derive.Deriver) Option {
	return func(s *Solver) {
		s.deriver = d
	}
}

// WithMaxIterations sets the bisection probe cap per candidate.
func WithMaxIterations(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// WithConcurrency bounds how many candidates search at once.
func WithConcurrency(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithBudget sets the wall-clock ceiling for one solve.
func WithBudget(d time.Duration) Option {
	return func(s *Solver) {
		if d > 0 {
			s.budget = d
		}
	}
}

// WithDefaultThreshold sets the probability threshold used when the
// caller passes none.
func WithDefaultThreshold(t float64) Option {
	return func(s *Solver) {
		if t > 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// Solver runs the minimal-change search.
type Solver struct {
	classifier    classify.Classifier
	deriver       *derive.Deriver
	maxIterations int
	concurrency   int
	budget        time.Duration
	threshold     float64
}

// New creates a Solver querying the given classifier.
func New(classifier classify.Classifier, opts ...Option) *Solver {
	s := &Solver{
		classifier:    classifier,
		deriver:       derive.New(),
		maxIterations: defaultMaxIterations,
		concurrency:   defaultConcurrency,
		budget:        defaultBudget,
		threshold:     defaultThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve tries every candidate and returns all outcomes plus the
// smallest-change recommendation. An exhausted search is a valid empty
// result, not an error; only malformed input fails.
func (s *Solver) Solve(ctx context.Context, athlete model.Athlete, target types.Tier, candidates []Candidate, threshold float64) (model.WhatIf, error) {
	if !target.Valid() {
		return model.WhatIf{}, fmt.Errorf("%w: %d", ErrNoTarget, target)
	}
	if threshold <= 0 || threshold > 1 {
		threshold = s.threshold
	}
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			return model.WhatIf{}, err
		}
	}

	result := model.WhatIf{
		TargetTier:  target,
		TargetLabel: target.Label(),
		Threshold:   threshold,
		Candidates:  make([]model.CandidateOutcome, len(candidates)),
	}
	if len(candidates) == 0 {
		result.Reason = "no candidates configured"
		return result, nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	g, gctx := errgroup.WithContext(searchCtx)
	g.SetLimit(s.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			result.Candidates[i] = s.searchCandidate(gctx, athlete, target, threshold, c)
			return nil
		})
	}
	// Goroutines report through the outcomes slice, never as errors.
	_ = g.Wait()

	best := -1
	for i, out := range result.Candidates {
		if !out.Success {
			continue
		}
		if best < 0 || math.Abs(out.Delta) < math.Abs(result.Candidates[best].Delta) {
			best = i
		}
	}
	if best < 0 {
		result.Reason = fmt.Sprintf("no candidate reaches %s within configured bounds", target.Label())
		return result, nil
	}
	rec := result.Candidates[best]
	result.Best = &rec
	return result, nil
}

// searchCandidate bisects one candidate's improvement span for the
// minimal sufficient value.
func (s *Solver) searchCandidate(ctx context.Context, base model.Athlete, target types.Tier, threshold float64, c Candidate) model.CandidateOutcome {
	out := model.CandidateOutcome{Field: c.Field}

	anchorRaw, ok := base.Stat(c.Field)
	if !ok {
		out.Skipped = true
		out.Reason = ErrInsufficientData.Error()
		return out
	}
	out.From = anchorRaw
	anchor := c.clampAnchor(anchorRaw)
	bound := c.bound()
	span := bound - anchor

	probe := func(v float64) (model.TierPrediction, bool, error) {
		out.Probes++
		trial := base.Clone()
		if err := trial.SetStat(c.Field, v); err != nil {
			return model.TierPrediction{}, false, err
		}
		feats := s.deriver.Derive(trial)
		pred, err := s.classifier.Classify(ctx, derive.Vector(trial, feats))
		if err != nil {
			return model.TierPrediction{}, false, err
		}
		return pred, meets(pred, target, threshold), nil
	}

	// Feasibility first: if the fully-improved bound cannot reach the
	// target, no interior value can under the monotonicity assumption.
	pred, hit, err := probe(bound)
	if err != nil {
		out.Reason = reasonFor(err)
		return out
	}
	if !hit {
		out.Reason = reasonUnreachable
		return out
	}
	best, bestPred := bound, pred

	// Bisect the improvement fraction: 0 is the anchor, 1 the bound.
	// Success narrows toward the anchor, seeking the least change that
	// still satisfies the target.
	if span != 0 {
		loT, hiT := 0.0, 1.0
		for i := 0; i < s.maxIterations; i++ {
			midT := (loT + hiT) / 2
			v := anchor + midT*span
			pred, hit, err := probe(v)
			if err != nil {
				out.Reason = reasonFor(err)
				break
			}
			if hit {
				if math.Abs(v-anchor) < math.Abs(best-anchor) {
					best, bestPred = v, pred
				}
				hiT = midT
			} else {
				loT = midT
			}
		}
	}

	// Snap to the step grid toward improvement so the recommendation
	// reads naturally, then re-verify; keep the raw value if the snap
	// no longer satisfies the target.
	if snapped := snapToward(anchor, best, span, c); snapped != best {
		if pred, hit, err := probe(snapped); err == nil && hit {
			best, bestPred = snapped, pred
		}
	}

	out.Success = true
	out.Reason = ""
	out.To = best
	out.Delta = best - anchorRaw
	out.Prediction = &bestPred
	return out
}

// snapToward rounds the raw search value onto the candidate's step
// grid, moving toward the improved bound and never past it.
func snapToward(anchor, v, span float64, c Candidate) float64 {
	if span == 0 {
		return v
	}
	steps := math.Ceil(math.Abs(v-anchor)/c.Step - 1e-9)
	snapped := anchor + math.Copysign(steps*c.Step, span)
	if span > 0 && snapped > c.bound() {
		snapped = c.bound()
	}
	if span < 0 && snapped < c.bound() {
		snapped = c.bound()
	}
	return snapped
}

// meets is the search success condition: probability mass on the target
// at or above the threshold, falling back to the discrete tier when the
// backend returns no probabilities.
func meets(pred model.TierPrediction, target types.Tier, threshold float64) bool {
	if p, ok := pred.ProbabilityOf(target); ok {
		return p >= threshold
	}
	return pred.Tier == target
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return reasonBudget
	case errors.Is(err, classify.ErrUnavailable):
		return reasonUnavailable
	}
	return err.Error()
}
