// internal/features/extractor_test.go
package features

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wateryu2030/yykhotdog-sub001/internal/common/logger"
	"github.com/wateryu2030/yykhotdog-sub001/internal/geo"
	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

// fakeGeoProvider is an in-memory geo.DataProvider that counts calls and can
// fail selected keywords.
type fakeGeoProvider struct {
	mu            sync.Mutex
	searchCalls   int
	popCalls      int
	poisByKeyword map[string][]models.POI
	failKeywords  map[string]error
	population    float64
	popErr        error
}

func (f *fakeGeoProvider) Geocode(ctx context.Context, address string) (*models.GeocodeResult, error) {
	return nil, errors.New("not used in extractor tests")
}

func (f *fakeGeoProvider) SearchNearby(ctx context.Context, lng, lat float64, keyword string, radiusMeters int) ([]models.POI, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if err, ok := f.failKeywords[keyword]; ok {
		return nil, err
	}
	return f.poisByKeyword[keyword], nil
}

func (f *fakeGeoProvider) EstimatePopulation(ctx context.Context, lng, lat float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popCalls++
	return f.population, f.popErr
}

func (f *fakeGeoProvider) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls + f.popCalls
}

func makePOIs(n int, distance float64) []models.POI {
	pois := make([]models.POI, n)
	for i := range pois {
		pois[i] = models.POI{ID: "poi", Category: "test", Distance: distance + float64(i)*10}
	}
	return pois
}

func testRegion() models.Region {
	return models.Region{Province: "广东省", City: "深圳市", District: "南山区"}
}

func TestExtractor_DerivesFeaturesFromSubQueries(t *testing.T) {
	provider := &fakeGeoProvider{
		poisByKeyword: map[string][]models.POI{
			geo.KeywordDining:     makePOIs(20, 120),
			geo.KeywordTransit:    makePOIs(3, 300),
			geo.KeywordCompetitor: makePOIs(5, 200),
			geo.KeywordSchool:     makePOIs(4, 450),
			geo.KeywordMall:       makePOIs(2, 600),
			geo.KeywordHospital:   makePOIs(1, 800),
		},
		population: 45000,
	}

	extractor := NewExtractor(provider, nil, 1000, logger.NewTestLogger(t))

	features, err := extractor.Extract(context.Background(), 113.93, 22.53, testRegion())
	require.NoError(t, err)

	assert.Equal(t, 5.0, features.CompetitorCount)
	assert.Equal(t, 20.0, features.CompetitionLevel)
	assert.Equal(t, 30.0, features.TrafficScore)
	assert.Equal(t, 4.0, features.SchoolCount)
	assert.Equal(t, 20.0, features.SchoolDensity)
	assert.Equal(t, 45.0, features.PopulationDensity)
	assert.Equal(t, 3.0, features.TransitStations)
	assert.Equal(t, 300.0, features.DistanceToMetro)
	assert.Equal(t, 600.0, features.DistanceToMall)
	assert.Equal(t, 450.0, features.DistanceToSchool)
	assert.Equal(t, 800.0, features.DistanceToHospital)
	assert.Greater(t, features.FootTraffic, 0.0)
	assert.GreaterOrEqual(t, features.SeasonalVariation, 0.2)
	assert.LessOrEqual(t, features.SeasonalVariation, 1.0)

	// 8 POI keywords + 1 population estimate.
	assert.Equal(t, 9, provider.totalCalls())
}

func TestExtractor_SubQueryFailureDegradesOnlyItsFeatures(t *testing.T) {
	provider := &fakeGeoProvider{
		poisByKeyword: map[string][]models.POI{
			geo.KeywordTransit: makePOIs(4, 250),
			geo.KeywordSchool:  makePOIs(2, 500),
		},
		failKeywords: map[string]error{
			geo.KeywordCompetitor: errors.New("upstream 503"),
		},
		population: 30000,
	}

	extractor := NewExtractor(provider, nil, 1000, logger.NewTestLogger(t))

	features, err := extractor.Extract(context.Background(), 113.93, 22.53, testRegion())
	require.NoError(t, err, "a failed sub-query must not abort extraction")

	assert.Zero(t, features.CompetitorCount)
	assert.Zero(t, features.CompetitionLevel)

	assert.Equal(t, 40.0, features.TrafficScore)
	assert.Equal(t, 10.0, features.SchoolDensity)
	assert.Equal(t, 30.0, features.PopulationDensity)
}

func TestExtractor_PopulationFailureDegradesToZero(t *testing.T) {
	provider := &fakeGeoProvider{
		poisByKeyword: map[string][]models.POI{
			geo.KeywordDining: makePOIs(10, 100),
		},
		popErr: errors.New("estimator offline"),
	}

	extractor := NewExtractor(provider, nil, 1000, logger.NewTestLogger(t))

	features, err := extractor.Extract(context.Background(), 113.93, 22.53, testRegion())
	require.NoError(t, err)
	assert.Zero(t, features.PopulationDensity)
	assert.Greater(t, features.DiningDensity, 0.0)
}

func TestExtractor_AllValuesStayInRange(t *testing.T) {
	provider := &fakeGeoProvider{
		poisByKeyword: map[string][]models.POI{
			geo.KeywordDining:      makePOIs(500, 50),
			geo.KeywordResidential: makePOIs(500, 50),
			geo.KeywordOffice:      makePOIs(500, 50),
			geo.KeywordMall:        makePOIs(500, 50),
			geo.KeywordTransit:     makePOIs(100, 50),
			geo.KeywordCompetitor:  makePOIs(100, 50),
			geo.KeywordSchool:      makePOIs(100, 50),
			geo.KeywordHospital:    makePOIs(100, 50),
		},
		population: 9_000_000,
	}

	extractor := NewExtractor(provider, nil, 1000, logger.NewTestLogger(t))

	features, err := extractor.Extract(context.Background(), 113.93, 22.53, testRegion())
	require.NoError(t, err)

	assert.LessOrEqual(t, features.POIDensity, 200.0)
	assert.LessOrEqual(t, features.PopulationDensity, 100.0)
	assert.LessOrEqual(t, features.TrafficScore, 100.0)
	assert.LessOrEqual(t, features.CompetitionLevel, 100.0)
	assert.LessOrEqual(t, features.SchoolDensity, 100.0)
	assert.LessOrEqual(t, features.RentalCost, 100.0)
	assert.LessOrEqual(t, features.FootTraffic, 100.0)
	assert.LessOrEqual(t, features.EconomicIndex, 100.0)
	assert.LessOrEqual(t, features.SeasonalVariation, 1.0)
	for _, v := range features.Vector() {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}
