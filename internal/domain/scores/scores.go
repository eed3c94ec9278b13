// Package scores computes the fixed scalar summaries attached to every
// evaluation. The formulas are documented literals, not learned
// weights; their inputs come from the imputer and the classifier.
package scores

import (
	"math"

	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/internal/domain/types"
)

// Formula constants.
const (
	performanceLift = 0.1
	combineWeight   = 0.8
	upsideFloor     = 0.05
	upsideSlope     = 0.3
	underdogBonus   = 0.05
)

// tierMidpoints anchor Overall when the backend returns a discrete
// class only; index is the ordinal tier.
var tierMidpoints = [types.NumTiers]float64{30, 50, 70, 90}

// Compute builds the score block from the tier prediction and the
// imputer's combine confidence. All sub-scores live in [0,1]; Overall
// is 0..100.
func Compute(pred model.TierPrediction, combineConfidence float64) model.Scores {
	s := model.Scores{
		CombineConfidence: combineConfidence,
		Performance:       math.Min(1, combineConfidence+performanceLift),
		Combine:           combineConfidence * combineWeight,
		Upside:            upsideFloor,
	}
	if combineConfidence > 0.5 {
		s.Upside = math.Max(upsideFloor, (combineConfidence-0.5)*upsideSlope)
	}
	if pred.Tier == types.TierD3NAIA {
		s.UnderdogBonus = underdogBonus
	}
	if p, ok := pred.Confidence(); ok {
		s.Overall = p * 100
	} else if pred.Tier.Valid() {
		s.Overall = tierMidpoints[pred.Tier]
	}
	return s
}
