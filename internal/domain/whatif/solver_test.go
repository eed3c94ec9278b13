package whatif_test

import (
	"context"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/openscout/gridiron/internal/domain/classify"
	"github.com/openscout/gridiron/internal/domain/derive"
	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/internal/domain/types"
	"github.com/openscout/gridiron/internal/domain/whatif"
)

func f(v float64) *float64 { return &v }

func baseQB() model.Athlete {
	return model.Athlete{
		ID:            "qb-604",
		Name:          "Case Renner",
		Position:      types.QB,
		State:         "TX",
		HeightInches:  f(75),
		WeightLbs:     f(208),
		FortyYardDash: f(4.9),
		VerticalJump:  f(31),
		Shuttle:       f(4.52),
		BroadJump:     f(110),
		BenchPress:    f(11),
		SeniorYPG:     f(250),
		JuniorYPG:     f(214),
		SeniorYds:     f(3000),
		SeniorTDs:     f(24),
		SeniorCompPct: f(62),
	}
}

// tierAnswer builds a prediction putting mass p on the given tier and
// spreading the remainder evenly.
func tierAnswer(tier types.Tier, p float64) model.TierPrediction {
	probs := make([]float64, types.NumTiers)
	rest := (1 - p) / float64(types.NumTiers-1)
	for i := range probs {
		probs[i] = rest
	}
	probs[tier] = p
	return model.TierPrediction{Tier: tier, Label: tier.Label(), Probabilities: probs}
}

// gate builds a classifier that reports Power 5 with high probability
// whenever ok(features) holds, and FCS otherwise. calls counts queries.
func gate(calls *atomic.Int64, ok func(map[string]float64) bool) classify.Func {
	return func(ctx context.Context, features map[string]float64) (model.TierPrediction, error) {
		if calls != nil {
			calls.Add(1)
		}
		if err := ctx.Err(); err != nil {
			return model.TierPrediction{}, err
		}
		if ok(features) {
			return tierAnswer(types.TierPowerFive, 0.9), nil
		}
		return tierAnswer(types.TierFCS, 0.9), nil
	}
}

func fortyCandidate() whatif.Candidate {
	return whatif.Candidate{
		Field: model.FieldForty, Min: 4.4, Max: 5.4, Step: 0.01,
		Direction: whatif.LowerBetter,
	}
}

func TestSolveFortySearch(t *testing.T) {
	Convey("Given a QB whose forty time is all that separates him from Power 5", t, func() {
		fastEnough := func(v map[string]float64) bool { return v[model.FieldForty] <= 4.7 }
		clf := gate(nil, fastEnough)
		solver := whatif.New(clf)
		qb := baseQB()

		Convey("When solving for Power 5 over the forty candidate", func() {
			res, err := solver.Solve(context.Background(), qb, types.TierPowerFive, []whatif.Candidate{fortyCandidate()}, 0.5)

			Convey("Then a recommendation is found", func() {
				So(err, ShouldBeNil)
				So(res.Best, ShouldNotBeNil)
				So(res.Best.Field, ShouldEqual, model.FieldForty)
				So(res.Best.Success, ShouldBeTrue)
			})

			Convey("Then the proposed value improves strictly within bounds", func() {
				So(err, ShouldBeNil)
				So(res.Best.From, ShouldEqual, 4.9)
				So(res.Best.To, ShouldBeBetween, 4.4, 4.9)
				So(res.Best.Delta, ShouldBeLessThan, 0)
			})

			Convey("Then the value snaps onto the hundredth-of-a-second grid", func() {
				So(err, ShouldBeNil)
				So(res.Best.To, ShouldAlmostEqual, 4.69, 0.0001)
				So(res.Best.Delta, ShouldAlmostEqual, -0.21, 0.0001)
			})

			Convey("Then the recommendation verifies on replay", func() {
				So(err, ShouldBeNil)
				trial := qb.Clone()
				So(trial.SetStat(res.Best.Field, res.Best.To), ShouldBeNil)
				pred, perr := clf.Classify(context.Background(), derive.Vector(trial, derive.New().Derive(trial)))
				So(perr, ShouldBeNil)
				p, ok := pred.ProbabilityOf(types.TierPowerFive)
				So(ok, ShouldBeTrue)
				So(p, ShouldBeGreaterThanOrEqualTo, 0.5)
			})

			Convey("Then the attached prediction clears the threshold", func() {
				So(err, ShouldBeNil)
				So(res.Best.Prediction, ShouldNotBeNil)
				p, ok := res.Best.Prediction.ProbabilityOf(types.TierPowerFive)
				So(ok, ShouldBeTrue)
				So(p, ShouldBeGreaterThanOrEqualTo, 0.5)
			})

			Convey("Then the probe count stays within the iteration cap plus verification", func() {
				So(err, ShouldBeNil)
				So(res.Best.Probes, ShouldEqual, 11)
			})
		})

		Convey("When the classifier only returns discrete tiers", func() {
			discrete := classify.Func(func(ctx context.Context, v map[string]float64) (model.TierPrediction, error) {
				tier := types.TierFCS
				if fastEnough(v) {
					tier = types.TierPowerFive
				}
				return model.TierPrediction{Tier: tier, Label: tier.Label()}, nil
			})
			res, err := whatif.New(discrete).Solve(context.Background(), qb, types.TierPowerFive, []whatif.Candidate{fortyCandidate()}, 0.5)

			Convey("Then the search falls back to exact tier matching", func() {
				So(err, ShouldBeNil)
				So(res.Best, ShouldNotBeNil)
				So(res.Best.To, ShouldAlmostEqual, 4.69, 0.0001)
			})
		})

		Convey("When the iteration cap is lowered", func() {
			solver := whatif.New(clf, whatif.WithMaxIterations(3))
			res, err := solver.Solve(context.Background(), qb, types.TierPowerFive, []whatif.Candidate{fortyCandidate()}, 0.5)

			Convey("Then fewer probes are spent and the result still verifies", func() {
				So(err, ShouldBeNil)
				So(res.Best, ShouldNotBeNil)
				So(res.Best.Probes, ShouldBeLessThanOrEqualTo, 5)
				So(res.Best.To, ShouldBeBetween, 4.4, 4.9)
			})
		})
	})
}

func TestSolveSmallestDelta(t *testing.T) {
	Convey("Given two candidates that can each reach the target", t, func() {
		clf := gate(nil, func(v map[string]float64) bool {
			return v[model.FieldForty] <= 4.7 || v[model.FieldSeniorYPG] >= 280
		})
		solver := whatif.New(clf)
		qb := baseQB()
		cands := []whatif.Candidate{
			fortyCandidate(),
			{Field: model.FieldSeniorYPG, Min: 50, Max: 500, Step: 5, Direction: whatif.HigherBetter},
		}

		Convey("When solving", func() {
			res, err := solver.Solve(context.Background(), qb, types.TierPowerFive, cands, 0.5)

			Convey("Then both candidates succeed and all are reported", func() {
				So(err, ShouldBeNil)
				So(res.Candidates, ShouldHaveLength, 2)
				So(res.Candidates[0].Success, ShouldBeTrue)
				So(res.Candidates[1].Success, ShouldBeTrue)
			})

			Convey("Then the recommendation is the smallest absolute change", func() {
				So(err, ShouldBeNil)
				So(res.Best, ShouldNotBeNil)
				So(res.Best.Field, ShouldEqual, model.FieldForty)
				for _, out := range res.Candidates {
					if !out.Success {
						continue
					}
					So(abs(res.Best.Delta), ShouldBeLessThanOrEqualTo, abs(out.Delta))
				}
			})

			Convey("Then the yardage recommendation lands on its own step grid", func() {
				So(err, ShouldBeNil)
				ypg := res.Candidates[1]
				So(ypg.To, ShouldBeGreaterThanOrEqualTo, 280)
				So(ypg.Delta, ShouldBeGreaterThan, 0)
				So(int(ypg.To-250)%5, ShouldEqual, 0)
			})
		})

		Convey("When solved with a single-slot concurrency limit", func() {
			res, err := whatif.New(clf, whatif.WithConcurrency(1)).Solve(context.Background(), qb, types.TierPowerFive, cands, 0.5)

			Convey("Then the selection is unchanged", func() {
				So(err, ShouldBeNil)
				So(res.Best, ShouldNotBeNil)
				So(res.Best.Field, ShouldEqual, model.FieldForty)
			})
		})
	})
}

func TestSolveExhaustion(t *testing.T) {
	Convey("Given a target no candidate can reach", t, func() {
		var calls atomic.Int64
		clf := gate(&calls, func(map[string]float64) bool { return false })
		solver := whatif.New(clf)
		qb := baseQB()

		Convey("When solving over the forty candidate", func() {
			res, err := solver.Solve(context.Background(), qb, types.TierPowerFive, []whatif.Candidate{fortyCandidate()}, 0.5)

			Convey("Then the result is empty but not an error", func() {
				So(err, ShouldBeNil)
				So(res.Best, ShouldBeNil)
				So(res.Reason, ShouldContainSubstring, "no candidate reaches")
				So(res.Candidates[0].Success, ShouldBeFalse)
				So(res.Candidates[0].Reason, ShouldContainSubstring, "unreachable")
			})

			Convey("Then the hopeless range is abandoned after one probe", func() {
				So(err, ShouldBeNil)
				So(res.Candidates[0].Probes, ShouldEqual, 1)
				So(calls.Load(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given an athlete already at the improved extreme of the range", t, func() {
		qb := baseQB()
		qb.FortyYardDash = f(4.4)

		Convey("When the classifier still reports a lower tier", func() {
			clf := gate(nil, func(map[string]float64) bool { return false })
			res, err := whatif.New(clf).Solve(context.Background(), qb, types.TierPowerFive, []whatif.Candidate{fortyCandidate()}, 0.5)

			Convey("Then the candidate yields no success and no error", func() {
				So(err, ShouldBeNil)
				So(res.Best, ShouldBeNil)
				out := res.Candidates[0]
				So(out.Success, ShouldBeFalse)
				So(out.Skipped, ShouldBeFalse)
				So(out.Probes, ShouldEqual, 1)
			})
		})

		Convey("When the extreme itself satisfies the target", func() {
			clf := gate(nil, func(v map[string]float64) bool { return v[model.FieldForty] <= 4.4 })
			res, err := whatif.New(clf).Solve(context.Background(), qb, types.TierPowerFive, []whatif.Candidate{fortyCandidate()}, 0.5)

			Convey("Then the result is a zero-delta success", func() {
				So(err, ShouldBeNil)
				So(res.Best, ShouldNotBeNil)
				So(res.Best.To, ShouldEqual, 4.4)
				So(res.Best.Delta, ShouldEqual, 0)
			})
		})
	})
}

func TestSolveSkipsAndFailures(t *testing.T) {
	Convey("Given a candidate the athlete has no value for", t, func() {
		clf := gate(nil, func(v map[string]float64) bool { return v[model.FieldForty] <= 4.7 })
		qb := baseQB()
		qb.VerticalJump = nil
		cands := []whatif.Candidate{
			{Field: model.FieldVertical, Min: 20, Max: 45, Step: 0.5, Direction: whatif.HigherBetter},
			fortyCandidate(),
		}

		Convey("When solving", func() {
			res, err := whatif.New(clf).Solve(context.Background(), qb, types.TierPowerFive, cands, 0.5)

			Convey("Then the anchorless candidate is skipped without probing", func() {
				So(err, ShouldBeNil)
				So(res.Candidates[0].Skipped, ShouldBeTrue)
				So(res.Candidates[0].Probes, ShouldEqual, 0)
				So(res.Candidates[0].Reason, ShouldContainSubstring, "anchor")
			})

			Convey("Then the remaining candidate still produces the recommendation", func() {
				So(err, ShouldBeNil)
				So(res.Best, ShouldNotBeNil)
				So(res.Best.Field, ShouldEqual, model.FieldForty)
			})
		})
	})

	Convey("Given a classifier that is down", t, func() {
		clf := classify.Func(func(context.Context, map[string]float64) (model.TierPrediction, error) {
			return model.TierPrediction{}, classify.ErrUnavailable
		})

		Convey("When solving", func() {
			res, err := whatif.New(clf).Solve(context.Background(), baseQB(), types.TierPowerFive, []whatif.Candidate{fortyCandidate()}, 0.5)

			Convey("Then the candidate reports the outage and no recommendation is made", func() {
				So(err, ShouldBeNil)
				So(res.Best, ShouldBeNil)
				So(res.Candidates[0].Success, ShouldBeFalse)
				So(res.Candidates[0].Reason, ShouldContainSubstring, "unavailable")
			})
		})
	})

	Convey("Given a cancelled caller context", t, func() {
		var calls atomic.Int64
		clf := gate(&calls, func(map[string]float64) bool { return true })
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("When solving", func() {
			res, err := whatif.New(clf).Solve(ctx, baseQB(), types.TierPowerFive, []whatif.Candidate{fortyCandidate()}, 0.5)

			Convey("Then the search stops promptly with a budget reason", func() {
				So(err, ShouldBeNil)
				So(res.Best, ShouldBeNil)
				So(res.Candidates[0].Success, ShouldBeFalse)
				So(res.Candidates[0].Reason, ShouldContainSubstring, "budget")
				So(calls.Load(), ShouldEqual, 1)
			})
		})
	})
}

func TestSolveValidation(t *testing.T) {
	Convey("Given malformed solver input", t, func() {
		var calls atomic.Int64
		clf := gate(&calls, func(map[string]float64) bool { return true })
		solver := whatif.New(clf)

		Convey("When a candidate has a non-positive step", func() {
			bad := fortyCandidate()
			bad.Step = 0
			_, err := solver.Solve(context.Background(), baseQB(), types.TierPowerFive, []whatif.Candidate{bad}, 0.5)

			Convey("Then the whole request fails before any query", func() {
				So(err, ShouldWrap, whatif.ErrBadCandidate)
				So(calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the target tier is out of range", func() {
			_, err := solver.Solve(context.Background(), baseQB(), types.Tier(9), []whatif.Candidate{fortyCandidate()}, 0.5)

			So(err, ShouldWrap, whatif.ErrNoTarget)
		})

		Convey("When the candidate list is empty", func() {
			res, err := solver.Solve(context.Background(), baseQB(), types.TierPowerFive, nil, 0.5)

			Convey("Then the result is empty with an explanation", func() {
				So(err, ShouldBeNil)
				So(res.Best, ShouldBeNil)
				So(res.Candidates, ShouldBeEmpty)
				So(res.Reason, ShouldContainSubstring, "no candidates")
			})
		})

		Convey("When the threshold is out of range it falls back to the default", func() {
			res, err := solver.Solve(context.Background(), baseQB(), types.TierPowerFive, nil, 0)

			So(err, ShouldBeNil)
			So(res.Threshold, ShouldEqual, 0.5)
		})
	})
}

func TestDefaultCandidates(t *testing.T) {
	Convey("Given the stock candidate sets", t, func() {
		Convey("Then every position has four valid candidates", func() {
			for _, pos := range types.Positions() {
				cands := whatif.DefaultCandidates(pos)
				So(cands, ShouldHaveLength, 4)
				for _, c := range cands {
					So(c.Validate(), ShouldBeNil)
				}
			}
		})

		Convey("Then the forty search always improves downward", func() {
			for _, pos := range types.Positions() {
				So(whatif.DefaultCandidates(pos)[0].Field, ShouldEqual, model.FieldForty)
				So(whatif.DefaultCandidates(pos)[0].Direction, ShouldEqual, whatif.LowerBetter)
			}
		})

		Convey("Then an unknown position has no candidates", func() {
			So(whatif.DefaultCandidates(types.Position("kicker")), ShouldBeEmpty)
		})
	})
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
