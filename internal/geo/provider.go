// Package geo declares the external geospatial data collaborator and a default
// HTTP client for it. The engine consumes the interface only; tests substitute
// fakes.
package geo

import (
	"context"

	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

// Search keywords issued by the feature aggregator.
const (
	KeywordDining      = "餐饮"
	KeywordTransit     = "地铁站|公交站"
	KeywordCompetitor  = "热狗|快餐"
	KeywordSchool      = "学校"
	KeywordMall        = "商场"
	KeywordHospital    = "医院"
	KeywordResidential = "住宅小区"
	KeywordOffice      = "写字楼"
)

// DataProvider resolves addresses and searches points of interest.
type DataProvider interface {
	// Geocode resolves free-text location to coordinates and the coarse
	// administrative region. Returns a GeocodeError when nothing matches.
	Geocode(ctx context.Context, address string) (*models.GeocodeResult, error)

	// SearchNearby returns POIs matching keyword within radiusMeters of the
	// given point.
	SearchNearby(ctx context.Context, lng, lat float64, keyword string, radiusMeters int) ([]models.POI, error)

	// EstimatePopulation returns an estimated resident count around the point.
	EstimatePopulation(ctx context.Context, lng, lat float64) (float64, error)
}
