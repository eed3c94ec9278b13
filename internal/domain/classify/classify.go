// Package classify defines the contract for predicting a division tier
// from a complete feature vector.
//
// The trained model is an external collaborator; this package only owns
// the boundary. Anything that satisfies Classifier can back an
// evaluation: the remote serving endpoint, the in-process rule model,
// or a test fixture.
package classify

import (
	"context"

	"github.com/openscout/gridiron/internal/domain/model"
)

// Classifier predicts a tier for one athlete's feature vector.
type Classifier interface {
	// Classify returns the predicted tier, honoring ctx for
	// cancellation. The prediction carries a probability vector when
	// the backend produces one.
	Classify(ctx context.Context, features map[string]float64) (model.TierPrediction, error)
}

// Func adapts a plain function to the Classifier interface.
type Func func(ctx context.Context, features map[string]float64) (model.TierPrediction, error)

// Classify implements Classifier.
func (f Func) Classify(ctx context.Context, features map[string]float64) (model.TierPrediction, error) {
	return f(ctx, features)
}
