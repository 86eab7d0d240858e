// Package scoring converts a FeatureSet into six normalized sub-scores and a
// weighted overall score. Everything here is a pure function of the feature
// set and the weight vector.
package scoring

import (
	"math"

	apperrors "github.com/wateryu2030/yykhotdog-sub001/internal/common/errors"
	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

// Grade thresholds on the overall score.
const (
	GradeExcellent = "excellent"
	GradeGood      = "good"
	GradeFair      = "fair"
	GradePoor      = "poor"
)

// Engine scores feature sets against a validated weight vector.
type Engine struct {
	weights Weights
}

// NewEngine builds an engine. Nil weights select the defaults; custom weights
// are renormalized to sum 1.
func NewEngine(weights Weights) (*Engine, error) {
	if weights == nil {
		return &Engine{weights: DefaultWeights()}, nil
	}

	normalized, err := weights.Renormalize()
	if err != nil {
		return nil, err
	}
	if err := normalized.Validate(); err != nil {
		return nil, err
	}
	return &Engine{weights: normalized}, nil
}

// Weights returns a copy of the engine's weight vector.
func (e *Engine) Weights() Weights {
	out := make(Weights, len(e.weights))
	for dim, v := range e.weights {
		out[dim] = v
	}
	return out
}

// Score computes the six sub-scores and the weighted overall score.
func (e *Engine) Score(features models.FeatureSet) (*models.ScoreResult, error) {
	subScores := map[string]float64{
		models.DimPOIDensity:  poiDensityScore(features.POIDensity),
		models.DimPopulation:  populationScore(features.PopulationDensity),
		models.DimTraffic:     trafficScore(features.TrafficScore),
		models.DimCompetition: competitionScore(features.CompetitionLevel),
		models.DimSchool:      schoolScore(features.SchoolDensity),
		models.DimRentalCost:  rentalCostScore(features.RentalCost),
	}

	overall := 0.0
	for dim, sub := range subScores {
		if sub < 0 || sub > 100 {
			return nil, apperrors.NewInvalidScoreRangeError(dim, sub)
		}
		overall += sub * e.weights[dim]
	}
	overall = round2(overall)

	return &models.ScoreResult{
		SubScores:    subScores,
		Weights:      e.Weights(),
		OverallScore: overall,
		Grade:        gradeFor(overall),
	}, nil
}

// poiDensityScore rewards POI density up to saturation at 80 POIs/km².
func poiDensityScore(density float64) float64 {
	return math.Min(density*1.25, 100)
}

// populationScore passes the 0..100 population index through, clamped.
func populationScore(index float64) float64 {
	return clamp(index, 0, 100)
}

// trafficScore passes the 0..100 transit accessibility score through, clamped.
func trafficScore(score float64) float64 {
	return clamp(score, 0, 100)
}

// competitionScore inverts the competition level: more competitors, lower
// score. Non-increasing in competitor count because the level itself is
// non-decreasing in it.
func competitionScore(level float64) float64 {
	return math.Max(0, 100-level)
}

// schoolScore rewards school density, saturating at an index of 50.
func schoolScore(density float64) float64 {
	return math.Min(density*2, 100)
}

// rentalCostScore inverts the rental cost index: cheaper rents score higher.
func rentalCostScore(costIndex float64) float64 {
	return math.Max(0, 100-costIndex)
}

func gradeFor(overall float64) string {
	switch {
	case overall >= 80:
		return GradeExcellent
	case overall >= 60:
		return GradeGood
	case overall >= 40:
		return GradeFair
	default:
		return GradePoor
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
