// internal/scoring/weights.go
package scoring

import (
	"fmt"
	"math"

	apperrors "github.com/wateryu2030/yykhotdog-sub001/internal/common/errors"
	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

// weightTolerance is the allowed deviation from 1.0 for a validated vector.
const weightTolerance = 1e-6

// Weights maps score dimensions to their relative importance.
type Weights map[string]float64

// DefaultWeights returns the fixed default weight vector over the six
// dimensions, summing to 1.0.
func DefaultWeights() Weights {
	return Weights{
		models.DimPOIDensity:  0.20,
		models.DimPopulation:  0.20,
		models.DimTraffic:     0.20,
		models.DimCompetition: 0.15,
		models.DimSchool:      0.15,
		models.DimRentalCost:  0.10,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// Validate checks that all six dimensions are present, no weight is negative,
// and the vector sums to 1 within tolerance.
func (w Weights) Validate() error {
	for _, dim := range models.ScoreDimensions() {
		v, ok := w[dim]
		if !ok {
			return apperrors.NewInvalidWeightVectorError(fmt.Sprintf("missing dimension %s", dim))
		}
		if v < 0 {
			return apperrors.NewInvalidWeightVectorError(fmt.Sprintf("negative weight for %s: %f", dim, v))
		}
	}
	if len(w) != len(models.ScoreDimensions()) {
		return apperrors.NewInvalidWeightVectorError(fmt.Sprintf("expected %d dimensions, got %d", len(models.ScoreDimensions()), len(w)))
	}
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return apperrors.NewInvalidWeightVectorError(fmt.Sprintf("weights sum to %.6f, must sum to 1.0", w.Sum()))
	}
	return nil
}

// Renormalize returns a copy scaled so the weights sum to exactly 1. Custom
// weight vectors always pass through here before use.
func (w Weights) Renormalize() (Weights, error) {
	sum := w.Sum()
	if sum <= 0 {
		return nil, apperrors.NewInvalidWeightVectorError(fmt.Sprintf("weights sum to %.6f, cannot renormalize", sum))
	}
	for dim, v := range w {
		if v < 0 {
			return nil, apperrors.NewInvalidWeightVectorError(fmt.Sprintf("negative weight for %s: %f", dim, v))
		}
	}

	out := make(Weights, len(w))
	for dim, v := range w {
		out[dim] = v / sum
	}
	return out, nil
}
