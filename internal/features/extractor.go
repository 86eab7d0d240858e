// Package features aggregates heterogeneous geospatial signals into one
// FeatureSet. Sub-queries run concurrently and settle independently; a failed
// sub-query degrades only its own features to zero.
package features

import (
	"context"
	"math"
	"sync"

	apperrors "github.com/wateryu2030/yykhotdog-sub001/internal/common/errors"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/logger"
	"github.com/wateryu2030/yykhotdog-sub001/internal/geo"
	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

// Extractor runs the concurrent feature extraction for one coordinate pair.
type Extractor struct {
	provider     geo.DataProvider
	cache        *RegionCache
	radiusMeters int
	logger       logger.Logger
}

// NewExtractor builds an extractor. cache may be nil, disabling region
// caching entirely.
func NewExtractor(provider geo.DataProvider, cache *RegionCache, radiusMeters int, log logger.Logger) *Extractor {
	if radiusMeters <= 0 {
		radiusMeters = 1000
	}
	return &Extractor{
		provider:     provider,
		cache:        cache,
		radiusMeters: radiusMeters,
		logger:       log.WithFields(map[string]interface{}{"component": "feature-extractor"}),
	}
}

// poiResult is one settled sub-query slot.
type poiResult struct {
	pois []models.POI
	err  error
}

// Extract returns the FeatureSet for the coordinates. A cache hit for the
// region skips every sub-query; individual sub-query failures are logged and
// degrade their own features only.
func (e *Extractor) Extract(ctx context.Context, lng, lat float64, region models.Region) (*models.FeatureSet, error) {
	if e.cache != nil && region.City != "" {
		if cached := e.cache.Get(ctx, region); cached != nil {
			e.logger.Debug("region cache hit", map[string]interface{}{
				"city":     region.City,
				"district": region.District,
			})
			return cached, nil
		}
	}

	keywords := map[string]string{
		"dining":      geo.KeywordDining,
		"residential": geo.KeywordResidential,
		"office":      geo.KeywordOffice,
		"mall":        geo.KeywordMall,
		"transit":     geo.KeywordTransit,
		"competitor":  geo.KeywordCompetitor,
		"school":      geo.KeywordSchool,
		"hospital":    geo.KeywordHospital,
	}

	results := make(map[string]*poiResult, len(keywords))
	for name := range keywords {
		results[name] = &poiResult{}
	}

	var (
		population    float64
		populationErr error
		wg            sync.WaitGroup
	)

	for name, keyword := range keywords {
		wg.Add(1)
		go func(name, keyword string) {
			defer wg.Done()
			slot := results[name]
			slot.pois, slot.err = e.provider.SearchNearby(ctx, lng, lat, keyword, e.radiusMeters)
		}(name, keyword)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		population, populationErr = e.provider.EstimatePopulation(ctx, lng, lat)
	}()

	wg.Wait()

	for name, slot := range results {
		if slot.err != nil {
			partial := apperrors.NewFeatureFetchPartialError(name, slot.err)
			e.logger.Warn(partial.Message, map[string]interface{}{
				"query": name,
				"error": slot.err.Error(),
			})
			slot.pois = nil
		}
	}
	if populationErr != nil {
		partial := apperrors.NewFeatureFetchPartialError("population", populationErr)
		e.logger.Warn(partial.Message, map[string]interface{}{
			"query": "population",
			"error": populationErr.Error(),
		})
		population = 0
	}

	features := e.derive(results, population)

	if e.cache != nil && region.City != "" {
		e.cache.Set(ctx, region, features)
	}

	return features, nil
}

// derive computes every FeatureSet field from the settled sub-queries. All
// values are clamped to their documented ranges.
func (e *Extractor) derive(results map[string]*poiResult, population float64) *models.FeatureSet {
	radiusKm := float64(e.radiusMeters) / 1000
	areaKm2 := math.Pi * radiusKm * radiusKm

	dining := results["dining"].pois
	residential := results["residential"].pois
	office := results["office"].pois
	mall := results["mall"].pois
	transit := results["transit"].pois
	competitor := results["competitor"].pois
	school := results["school"].pois
	hospital := results["hospital"].pois

	totalPOIs := len(dining) + len(residential) + len(office) + len(mall)
	poiDensity := clamp(float64(totalPOIs)/areaKm2, 0, 200)

	transitScore := clamp(float64(len(transit))*10, 0, 100)
	diningScore := clamp(float64(len(dining))*2, 0, 100)

	officeDensity := clamp(float64(len(office))/areaKm2, 0, 200)
	retailDensity := clamp(float64(len(mall))/areaKm2, 0, 200)

	economicIndex := clamp(
		0.6*clamp(officeDensity*2.5, 0, 100)+0.4*clamp(retailDensity*2.5, 0, 100),
		0, 100)

	schoolDensity := clamp(float64(len(school))*5, 0, 100)

	return &models.FeatureSet{
		POIDensity:        poiDensity,
		PopulationDensity: clamp(population/1000, 0, 100),
		TrafficScore:      transitScore,
		CompetitionLevel:  clamp(float64(len(competitor))*4, 0, 100),
		CompetitorCount:   float64(len(competitor)),
		SchoolDensity:     schoolDensity,
		SchoolCount:       float64(len(school)),
		// No rental listings feed; the cost index is proxied from commercial
		// intensity of the area.
		RentalCost:  clamp(0.5*economicIndex+0.5*clamp(poiDensity, 0, 100), 0, 100),
		FootTraffic: clamp(0.5*transitScore+0.5*diningScore, 0, 100),

		TransitStations:    float64(len(transit)),
		DistanceToMetro:    nearestDistance(transit),
		DistanceToMall:     nearestDistance(mall),
		DistanceToSchool:   nearestDistance(school),
		DistanceToHospital: nearestDistance(hospital),

		ResidentialDensity: clamp(float64(len(residential))/areaKm2, 0, 200),
		OfficeDensity:      officeDensity,
		RetailDensity:      retailDensity,
		DiningDensity:      clamp(float64(len(dining))/areaKm2, 0, 200),

		SeasonalVariation: clamp(0.2+schoolDensity/100*0.3, 0, 1),
		EconomicIndex:     economicIndex,
	}
}

func nearestDistance(pois []models.POI) float64 {
	nearest := 0.0
	for _, p := range pois {
		if p.Distance <= 0 {
			continue
		}
		if nearest == 0 || p.Distance < nearest {
			nearest = p.Distance
		}
	}
	return nearest
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
