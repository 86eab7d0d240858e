// internal/predict/predictor_test.go
package predict

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wateryu2030/yykhotdog-sub001/internal/common/config"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/logger"
	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

func testPredictConfig() config.PredictConfig {
	return config.PredictConfig{
		AvgOrderValue:     35,
		RepeatRate:        0.6,
		MonthlyCost:       50000,
		InitialInvestment: 300000,
		BaseRevenue:       960000,
	}
}

func strongFeatures() models.FeatureSet {
	return models.FeatureSet{
		POIDensity:         80,
		PopulationDensity:  85,
		TrafficScore:       75,
		CompetitionLevel:   20,
		CompetitorCount:    5,
		SchoolDensity:      45,
		SchoolCount:        9,
		RentalCost:         45,
		FootTraffic:        70,
		TransitStations:    6,
		EconomicIndex:      65,
		SeasonalVariation:  0.25,
		OfficeDensity:      40,
		RetailDensity:      30,
		DiningDensity:      50,
		ResidentialDensity: 60,
		DistanceToMetro:    300,
		DistanceToMall:     500,
		DistanceToSchool:   400,
		DistanceToHospital: 900,
	}
}

func weakFeatures() models.FeatureSet {
	return models.FeatureSet{
		POIDensity:        5,
		PopulationDensity: 10,
		TrafficScore:      15,
		CompetitionLevel:  80,
		CompetitorCount:   20,
		RentalCost:        85,
		FootTraffic:       10,
		EconomicIndex:     15,
		SeasonalVariation: 0.6,
	}
}

func assertFullContract(t *testing.T, p *models.MLPrediction) {
	t.Helper()
	assert.GreaterOrEqual(t, p.PredictedRevenue, 0.0)
	assert.GreaterOrEqual(t, p.PredictedOrders, 0.0)
	assert.GreaterOrEqual(t, p.PredictedCustomers, 0.0)
	assert.GreaterOrEqual(t, p.Confidence, 0.0)
	assert.LessOrEqual(t, p.Confidence, 1.0)
	assert.Contains(t, []string{models.RiskLow, models.RiskMedium, models.RiskHigh}, p.RiskLevel)
	assert.NotNil(t, p.RiskFactors)
	assert.GreaterOrEqual(t, p.SuccessProbability, 0.0)
	assert.LessOrEqual(t, p.SuccessProbability, 1.0)
	assert.Greater(t, p.BreakEvenMonths, 0)
	assert.Contains(t, []string{models.PotentialLow, models.PotentialMedium, models.PotentialHigh}, p.MarketPotential)
	assert.NotEmpty(t, p.Strategy)
	assert.Len(t, p.SeasonalTrends, 4)
}

func TestPredict_FallbackPopulatesFullContract(t *testing.T) {
	predictor := NewPredictor(testPredictConfig(), logger.NewTestLogger(t))
	require.False(t, predictor.HasModel())

	prediction := predictor.Predict(strongFeatures())
	assertFullContract(t, prediction)

	// revenue = base * (0.5 + weightedScore/100)
	expected := 960000 * (0.5 + weightedFeatureScore(strongFeatures())/100)
	assert.InDelta(t, expected, prediction.PredictedRevenue, 0.01)

	assert.InDelta(t, math.Round(prediction.PredictedRevenue/35), prediction.PredictedOrders, 1)
	assert.InDelta(t, math.Round(prediction.PredictedOrders*0.6), prediction.PredictedCustomers, 1)
}

func TestPredict_TrainedPathUsesModel(t *testing.T) {
	predictor := NewPredictor(testPredictConfig(), logger.NewTestLogger(t))

	_, err := predictor.Train(linearSamples(12, 5000))
	require.NoError(t, err)
	require.True(t, predictor.HasModel())

	features := models.FeatureSet{POIDensity: 130, PopulationDensity: 50, TrafficScore: 60}
	prediction := predictor.Predict(features)
	assertFullContract(t, prediction)

	// mean 325000 + (130-65)*5000 = 650000
	assert.InDelta(t, 650000, prediction.PredictedRevenue, 0.01)
}

func TestPredict_TrainedRevenueClampedToZero(t *testing.T) {
	predictor := NewPredictor(testPredictConfig(), logger.NewTestLogger(t))
	_, err := predictor.Train(linearSamples(12, 5000))
	require.NoError(t, err)

	// Far below the training range the linear extrapolation goes negative.
	prediction := predictor.Predict(models.FeatureSet{POIDensity: 0})
	assert.GreaterOrEqual(t, prediction.PredictedRevenue, 0.0)
}

func TestPredict_FailedTrainKeepsFallbackActive(t *testing.T) {
	predictor := NewPredictor(testPredictConfig(), logger.NewTestLogger(t))

	_, err := predictor.Train(linearSamples(5, 5000))
	require.Error(t, err)
	assert.False(t, predictor.HasModel())

	prediction := predictor.Predict(strongFeatures())
	assertFullContract(t, prediction)
}

func TestPredict_BreakEvenSentinel(t *testing.T) {
	cfg := testPredictConfig()
	cfg.BaseRevenue = 100000 // max fallback revenue 150000 < annual cost 600000
	predictor := NewPredictor(cfg, logger.NewTestLogger(t))

	prediction := predictor.Predict(strongFeatures())
	assert.Equal(t, models.BreakEvenUnreachable, prediction.BreakEvenMonths)
	assert.Less(t, prediction.ROI, 0.0)
}

func TestPredict_BreakEvenFormula(t *testing.T) {
	predictor := NewPredictor(testPredictConfig(), logger.NewTestLogger(t))

	prediction := predictor.Predict(strongFeatures())
	require.NotEqual(t, models.BreakEvenUnreachable, prediction.BreakEvenMonths)

	annualCost := 50000.0 * 12
	expected := int(math.Ceil(annualCost / prediction.PredictedRevenue * 12))
	assert.Equal(t, expected, prediction.BreakEvenMonths)
	assert.Greater(t, prediction.ROI, 0.0)
}

func TestPredict_RiskLevels(t *testing.T) {
	predictor := NewPredictor(testPredictConfig(), logger.NewTestLogger(t))

	weak := predictor.Predict(weakFeatures())
	assert.Equal(t, models.RiskHigh, weak.RiskLevel)
	assert.GreaterOrEqual(t, len(weak.RiskFactors), 5)

	strong := predictor.Predict(strongFeatures())
	assert.Equal(t, models.RiskLow, strong.RiskLevel)
	assert.Less(t, len(strong.RiskFactors), 3)
}

func TestPredict_MarketPotentialGrades(t *testing.T) {
	predictor := NewPredictor(testPredictConfig(), logger.NewTestLogger(t))

	assert.Equal(t, models.PotentialHigh, predictor.Predict(strongFeatures()).MarketPotential)
	assert.Equal(t, models.PotentialLow, predictor.Predict(weakFeatures()).MarketPotential)
}

func TestPredict_ConfidenceRewardsCompleteness(t *testing.T) {
	predictor := NewPredictor(testPredictConfig(), logger.NewTestLogger(t))

	full := predictor.Predict(strongFeatures())
	sparse := predictor.Predict(models.FeatureSet{POIDensity: 40, PopulationDensity: 45, TrafficScore: 55, FootTraffic: 50, EconomicIndex: 50})

	assert.Greater(t, full.Confidence, sparse.Confidence)
}

func TestPredict_BothPathsPopulateIdenticalFieldSets(t *testing.T) {
	predictor := NewPredictor(testPredictConfig(), logger.NewTestLogger(t))

	fallback := predictor.Predict(strongFeatures())

	_, err := predictor.Train(linearSamples(12, 5000))
	require.NoError(t, err)
	trained := predictor.Predict(strongFeatures())

	assertFullContract(t, fallback)
	assertFullContract(t, trained)
	assert.Equal(t, fallback.MarketPotential, trained.MarketPotential)
	assert.Equal(t, fallback.RiskLevel, trained.RiskLevel)
	assert.Equal(t, fallback.SeasonalTrends, trained.SeasonalTrends)
}
