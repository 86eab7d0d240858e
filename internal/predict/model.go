// internal/predict/model.go
package predict

import (
	"time"

	apperrors "github.com/wateryu2030/yykhotdog-sub001/internal/common/errors"
	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

// MinTrainingSamples is the minimum number of positive-revenue samples a
// trained model requires.
const MinTrainingSamples = 10

// Model holds the per-feature regression weights. Each weight is the
// single-feature OLS coefficient cov(x_i, y)/var(x_i) — intentionally not a
// multivariate fit, the downstream confidence constants are tuned to this.
type Model struct {
	Weights      []float64 `json:"weights"`
	FeatureMeans []float64 `json:"featureMeans"`
	TargetMean   float64   `json:"targetMean"`
	SampleCount  int       `json:"sampleCount"`
	TrainedAt    time.Time `json:"trainedAt"`
}

// Train fits a Model over historical store performance. Samples without
// positive revenue are discarded; fewer than MinTrainingSamples usable
// samples fails with an InsufficientDataError that callers must catch to
// stay on the rule-based path.
func Train(samples []models.HistoricalSample) (*Model, error) {
	usable := make([]models.HistoricalSample, 0, len(samples))
	for _, s := range samples {
		if s.ActualRevenue > 0 {
			usable = append(usable, s)
		}
	}
	if len(usable) < MinTrainingSamples {
		return nil, apperrors.NewInsufficientDataError(len(usable), MinTrainingSamples)
	}

	n := float64(len(usable))
	dims := len(models.FeatureNames())

	targetMean := 0.0
	for _, s := range usable {
		targetMean += s.ActualRevenue
	}
	targetMean /= n

	featureMeans := make([]float64, dims)
	for _, s := range usable {
		vec := s.Features.Vector()
		for i, v := range vec {
			featureMeans[i] += v
		}
	}
	for i := range featureMeans {
		featureMeans[i] /= n
	}

	weights := make([]float64, dims)
	for i := 0; i < dims; i++ {
		var cov, variance float64
		for _, s := range usable {
			dx := s.Features.Vector()[i] - featureMeans[i]
			dy := s.ActualRevenue - targetMean
			cov += dx * dy
			variance += dx * dx
		}
		// Constant features carry no signal.
		if variance > 0 {
			weights[i] = cov / variance
		}
	}

	return &Model{
		Weights:      weights,
		FeatureMeans: featureMeans,
		TargetMean:   targetMean,
		SampleCount:  len(usable),
		TrainedAt:    time.Now().UTC(),
	}, nil
}
