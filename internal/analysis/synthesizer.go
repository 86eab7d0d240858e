// Package analysis orchestrates the full site evaluation pipeline: geocode,
// feature extraction, scoring, revenue prediction and the AI narrative, then
// assembles the immutable AnalysisResult.
package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wateryu2030/yykhotdog-sub001/internal/aigateway"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/config"
	apperrors "github.com/wateryu2030/yykhotdog-sub001/internal/common/errors"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/logger"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/metrics"
	"github.com/wateryu2030/yykhotdog-sub001/internal/features"
	"github.com/wateryu2030/yykhotdog-sub001/internal/geo"
	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
	"github.com/wateryu2030/yykhotdog-sub001/internal/predict"
	"github.com/wateryu2030/yykhotdog-sub001/internal/scoring"
)

const saveTimeout = 5 * time.Second

// CompletionGateway is the slice of the AI gateway the synthesizer needs.
type CompletionGateway interface {
	Complete(ctx context.Context, req *aigateway.CompletionRequest) (*aigateway.Completion, error)
	HasAvailableProvider() bool
}

// Deps are the collaborators of a Synthesizer. Store and Samples are
// optional; a nil Store disables persistence and a nil Samples disables
// TrainFromStore.
type Deps struct {
	Geo       geo.DataProvider
	Extractor *features.Extractor
	Engine    *scoring.Engine
	Predictor *predict.Predictor
	Gateway   CompletionGateway
	Store     Store
	Samples   SampleSource
	Batch     config.BatchConfig
	Logger    logger.Logger
}

// Synthesizer runs analyses. Stateless apart from the predictor's model; safe
// for concurrent use.
type Synthesizer struct {
	geo       geo.DataProvider
	extractor *features.Extractor
	engine    *scoring.Engine
	predictor *predict.Predictor
	gateway   CompletionGateway
	store     Store
	samples   SampleSource
	batch     config.BatchConfig
	logger    logger.Logger
}

func NewSynthesizer(deps Deps) *Synthesizer {
	batch := deps.Batch
	if batch.Size <= 0 {
		batch.Size = 3
	}
	if batch.PauseMs <= 0 {
		batch.PauseMs = 500
	}
	if batch.MaxLocations <= 0 {
		batch.MaxLocations = 20
	}
	return &Synthesizer{
		geo:       deps.Geo,
		extractor: deps.Extractor,
		engine:    deps.Engine,
		predictor: deps.Predictor,
		gateway:   deps.Gateway,
		store:     deps.Store,
		samples:   deps.Samples,
		batch:     batch,
		logger:    deps.Logger.WithFields(map[string]interface{}{"component": "synthesizer"}),
	}
}

// Analyze evaluates one free-text location. Geocoding is the only fatal
// stage; everything downstream degrades instead of failing.
func (s *Synthesizer) Analyze(ctx context.Context, location string) (*models.AnalysisResult, error) {
	start := time.Now()

	result, err := s.analyze(ctx, location)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.AnalysesCompleted.WithLabelValues(status).Inc()
	metrics.AnalysisDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	return result, err
}

func (s *Synthesizer) analyze(ctx context.Context, location string) (*models.AnalysisResult, error) {
	geocoded, err := s.geo.Geocode(ctx, location)
	if err != nil {
		s.logger.WithError(err).Error("geocoding failed", map[string]interface{}{"location": location})
		if errors.Is(err, apperrors.ErrGeocodeFailed) {
			return nil, err
		}
		return nil, apperrors.NewGeocodeError(location, err.Error())
	}

	featureSet, err := s.extractor.Extract(ctx, geocoded.Coordinates.Longitude, geocoded.Coordinates.Latitude, geocoded.Region)
	if err != nil {
		return nil, err
	}

	score, err := s.engine.Score(*featureSet)
	if err != nil {
		return nil, err
	}

	prediction := s.predictor.Predict(*featureSet)
	narrative := s.narrativeFor(ctx, location, *featureSet, score, prediction)

	result := &models.AnalysisResult{
		ID:          uuid.NewString(),
		Location:    location,
		Coordinates: geocoded.Coordinates,
		Region:      geocoded.Region,
		Features:    *featureSet,
		Score:       *score,
		Prediction:  *prediction,
		Narrative:   *narrative,
		CreatedAt:   time.Now().UTC(),
	}

	s.logger.Info("analysis completed", map[string]interface{}{
		"analysisId": result.ID,
		"location":   location,
		"score":      score.OverallScore,
		"grade":      score.Grade,
		"narrative":  narrative.Source,
	})

	s.saveAsync(result)
	return result, nil
}

// narrativeFor produces the qualitative assessment. Narrative failures never
// fail the analysis: gateway exhaustion and unparseable output both degrade
// to deterministic fallbacks.
func (s *Synthesizer) narrativeFor(ctx context.Context, location string, featureSet models.FeatureSet, score *models.ScoreResult, prediction *models.MLPrediction) *models.Narrative {
	if s.gateway == nil || !s.gateway.HasAvailableProvider() {
		return ruleNarrative(location, score, prediction)
	}

	completion, err := s.gateway.Complete(ctx, &aigateway.CompletionRequest{
		Messages:    buildNarrativeMessages(location, featureSet, score, prediction),
		Temperature: 0.4,
		MaxTokens:   1024,
		JSONMode:    true,
	})
	if err != nil {
		s.logger.WithError(err).Warn("narrative generation failed, using rule-based fallback", map[string]interface{}{
			"location": location,
		})
		return ruleNarrative(location, score, prediction)
	}

	narrative := parseNarrative(completion.Content)
	if narrative.Source == "" {
		narrative.Source = completion.ProviderUsed
	}
	return narrative
}

// saveAsync persists the result without blocking or failing the analysis.
func (s *Synthesizer) saveAsync(result *models.AnalysisResult) {
	if s.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := s.store.Save(ctx, result); err != nil {
			s.logger.WithError(apperrors.NewAnalysisSaveFailedError(err)).Warn("analysis persistence failed", map[string]interface{}{
				"analysisId": result.ID,
			})
		}
	}()
}

// TrainFromStore loads historical samples and trains the predictive model.
// InsufficientDataError is reported but leaves the rule-based path active.
func (s *Synthesizer) TrainFromStore(ctx context.Context) error {
	if s.samples == nil {
		return errors.New("no sample source configured")
	}

	samples, err := s.samples.LoadSamples(ctx)
	if err != nil {
		return err
	}

	model, err := s.predictor.Train(samples)
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientData) {
			s.logger.WithError(err).Warn("not enough history to train, staying on rule-based predictions", nil)
		}
		return err
	}

	s.logger.Info("predictive model trained from store history", map[string]interface{}{
		"samples": model.SampleCount,
	})
	return nil
}
