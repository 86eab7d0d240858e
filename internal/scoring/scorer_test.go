// internal/scoring/scorer_test.go
package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

func TestDefaultWeights_SumToOne(t *testing.T) {
	w := DefaultWeights()
	require.NoError(t, w.Validate())
	assert.InDelta(t, 1.0, w.Sum(), 1e-6)
}

func TestWeights_Renormalize(t *testing.T) {
	raw := Weights{
		models.DimPOIDensity:  2,
		models.DimPopulation:  2,
		models.DimTraffic:     2,
		models.DimCompetition: 1.5,
		models.DimSchool:      1.5,
		models.DimRentalCost:  1,
	}

	normalized, err := raw.Renormalize()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, normalized.Sum(), 1e-6)
	assert.InDelta(t, 0.20, normalized[models.DimPOIDensity], 1e-9)
	assert.InDelta(t, 0.10, normalized[models.DimRentalCost], 1e-9)
}

func TestWeights_RenormalizeRejectsInvalid(t *testing.T) {
	_, err := Weights{models.DimPOIDensity: 0}.Renormalize()
	assert.Error(t, err)

	_, err = Weights{
		models.DimPOIDensity:  1.5,
		models.DimPopulation:  -0.5,
		models.DimTraffic:     0,
		models.DimCompetition: 0,
		models.DimSchool:      0,
		models.DimRentalCost:  0,
	}.Renormalize()
	assert.Error(t, err)
}

// Regression fixture from the scoring model documentation: the overall score
// must stay hand-computable from the per-dimension formulas.
func TestEngine_WorkedExample(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	features := models.FeatureSet{
		POIDensity:        80,
		PopulationDensity: 90,
		TrafficScore:      70,
		CompetitionLevel:  60,
		SchoolDensity:     50,
		RentalCost:        40,
	}

	result, err := engine.Score(features)
	require.NoError(t, err)

	// poi: min(80*1.25,100)=100; population: 90; traffic: 70;
	// competition: 100-60=40; school: min(50*2,100)=100; rent: 100-40=60.
	assert.Equal(t, 100.0, result.SubScores[models.DimPOIDensity])
	assert.Equal(t, 90.0, result.SubScores[models.DimPopulation])
	assert.Equal(t, 70.0, result.SubScores[models.DimTraffic])
	assert.Equal(t, 40.0, result.SubScores[models.DimCompetition])
	assert.Equal(t, 100.0, result.SubScores[models.DimSchool])
	assert.Equal(t, 60.0, result.SubScores[models.DimRentalCost])

	// 100*.2 + 90*.2 + 70*.2 + 40*.15 + 100*.15 + 60*.1 = 79.00
	assert.Equal(t, 79.00, result.OverallScore)
	assert.Equal(t, GradeGood, result.Grade)
}

func TestEngine_OverallMatchesWeightedSum(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	fixtures := []models.FeatureSet{
		{},
		{POIDensity: 200, PopulationDensity: 100, TrafficScore: 100, SchoolDensity: 100},
		{CompetitionLevel: 100, RentalCost: 100},
		{POIDensity: 33.3, PopulationDensity: 47.2, TrafficScore: 58.9, CompetitionLevel: 12.4, SchoolDensity: 8.1, RentalCost: 77.7},
	}

	for _, features := range fixtures {
		result, err := engine.Score(features)
		require.NoError(t, err)

		expected := 0.0
		for dim, sub := range result.SubScores {
			assert.GreaterOrEqual(t, sub, 0.0)
			assert.LessOrEqual(t, sub, 100.0)
			expected += sub * result.Weights[dim]
		}
		assert.Equal(t, math.Round(expected*100)/100, result.OverallScore)
		assert.GreaterOrEqual(t, result.OverallScore, 0.0)
		assert.LessOrEqual(t, result.OverallScore, 100.0)
		assert.InDelta(t, 1.0, Weights(result.Weights).Sum(), 1e-6)
	}
}

func TestEngine_CompetitionMonotonicity(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	base := models.FeatureSet{
		POIDensity:        50,
		PopulationDensity: 50,
		TrafficScore:      50,
		SchoolDensity:     30,
		RentalCost:        50,
	}

	prev := math.Inf(1)
	for count := 0; count <= 30; count += 3 {
		features := base
		features.CompetitorCount = float64(count)
		features.CompetitionLevel = math.Min(float64(count)*4, 100)

		result, err := engine.Score(features)
		require.NoError(t, err)

		sub := result.SubScores[models.DimCompetition]
		assert.LessOrEqual(t, sub, prev,
			"competition sub-score must never increase with competitor count")
		prev = sub
	}
}

func TestEngine_Grades(t *testing.T) {
	tests := []struct {
		overall float64
		want    string
	}{
		{85, GradeExcellent},
		{80, GradeExcellent},
		{79.99, GradeGood},
		{60, GradeGood},
		{59.99, GradeFair},
		{40, GradeFair},
		{39.99, GradePoor},
		{0, GradePoor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, gradeFor(tt.overall), "overall=%v", tt.overall)
	}
}
