package types_test

import (
	"testing"

	types "github.com/openscout/gridiron/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPosition(t *testing.T) {
	Convey("Given the supported positions", t, func() {
		Convey("When checking validity", func() {
			Convey("Then qb, rb and wr should be valid", func() {
				So(types.QB.Valid(), ShouldBeTrue)
				So(types.RB.Valid(), ShouldBeTrue)
				So(types.WR.Valid(), ShouldBeTrue)
			})

			Convey("And anything else should be invalid", func() {
				So(types.Position("").Valid(), ShouldBeFalse)
				So(types.Position("te").Valid(), ShouldBeFalse)
				So(types.Position("QB ").Valid(), ShouldBeFalse)
			})
		})

		Convey("When listing positions", func() {
			positions := types.Positions()

			Convey("Then all three should be present in stable order", func() {
				So(positions, ShouldResemble, []types.Position{types.QB, types.RB, types.WR})
			})
		})
	})
}

func TestTier(t *testing.T) {
	Convey("Given the ordinal tier mapping", t, func() {
		Convey("When resolving labels", func() {
			Convey("Then each ordinal should map to its canonical label", func() {
				So(types.TierD3NAIA.Label(), ShouldEqual, "D3/NAIA")
				So(types.TierD2.Label(), ShouldEqual, "D2")
				So(types.TierFCS.Label(), ShouldEqual, "FCS")
				So(types.TierPowerFive.Label(), ShouldEqual, "Power 5")
			})

			Convey("And out-of-range ids should map to unknown", func() {
				So(types.Tier(-1).Label(), ShouldEqual, "unknown")
				So(types.Tier(4).Label(), ShouldEqual, "unknown")
			})
		})

		Convey("When resolving labels back to tiers", func() {
			tier, ok := types.TierFromLabel("Power 5")

			Convey("Then the round trip should succeed", func() {
				So(ok, ShouldBeTrue)
				So(tier, ShouldEqual, types.TierPowerFive)
			})

			Convey("And unknown labels should not resolve", func() {
				_, ok := types.TierFromLabel("Power5")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When asking for the next tier up", func() {
			Convey("Then mid tiers should step up by one", func() {
				next, ok := types.TierD2.Next()
				So(ok, ShouldBeTrue)
				So(next, ShouldEqual, types.TierFCS)
			})

			Convey("And the top tier should report no next", func() {
				next, ok := types.TierPowerFive.Next()
				So(ok, ShouldBeFalse)
				So(next, ShouldEqual, types.TierPowerFive)
			})
		})

		Convey("When mapping tiers to benchmark divisions", func() {
			Convey("Then the lowest tier should span D3 and NAIA", func() {
				So(types.DivisionsForTier(types.TierD3NAIA), ShouldResemble,
					[]types.Division{types.DivThree, types.NAIA})
			})

			Convey("And the higher tiers should map to single rows", func() {
				So(types.DivisionsForTier(types.TierPowerFive), ShouldResemble, []types.Division{types.PowerFive})
				So(types.DivisionsForTier(types.TierFCS), ShouldResemble, []types.Division{types.FCS})
				So(types.DivisionsForTier(types.TierD2), ShouldResemble, []types.Division{types.DivTwo})
			})
		})
	})
}

func TestMetric(t *testing.T) {
	Convey("Given the combine metrics", t, func() {
		Convey("When listing them", func() {
			metrics := types.Metrics()

			Convey("Then all five imputable metrics should be present", func() {
				So(metrics, ShouldHaveLength, 5)
				So(metrics, ShouldContain, types.FortyYardDash)
				So(metrics, ShouldContain, types.VerticalJump)
				So(metrics, ShouldContain, types.Shuttle)
				So(metrics, ShouldContain, types.BroadJump)
				So(metrics, ShouldContain, types.BenchPress)
			})
		})

		Convey("When checking improvement direction", func() {
			Convey("Then timed drills should favor lower values", func() {
				So(types.FortyYardDash.LowerIsBetter(), ShouldBeTrue)
				So(types.Shuttle.LowerIsBetter(), ShouldBeTrue)
			})

			Convey("And jumps and lifts should favor higher values", func() {
				So(types.VerticalJump.LowerIsBetter(), ShouldBeFalse)
				So(types.BroadJump.LowerIsBetter(), ShouldBeFalse)
				So(types.BenchPress.LowerIsBetter(), ShouldBeFalse)
			})
		})
	})
}
