// internal/models/feature_set.go
package models

// FeatureSet is the normalized vector of geospatial and economic signals
// describing one candidate location. Every value is a non-negative float;
// producers clamp to the documented range before constructing the set, and a
// set is never mutated after construction.
type FeatureSet struct {
	// POIDensity is points of interest per square kilometer, 0..200.
	POIDensity float64 `json:"poiDensity"`
	// PopulationDensity is a 0..100 index derived from the population estimate.
	PopulationDensity float64 `json:"populationDensity"`
	// TrafficScore is a 0..100 transit accessibility score.
	TrafficScore float64 `json:"trafficScore"`
	// CompetitionLevel is a 0..100 index, min(competitorCount*4, 100).
	CompetitionLevel float64 `json:"competitionLevel"`
	// CompetitorCount is the raw same-category store count in the radius.
	CompetitorCount float64 `json:"competitorCount"`
	// SchoolDensity is a 0..100 index, min(schoolCount*5, 100).
	SchoolDensity float64 `json:"schoolDensity"`
	SchoolCount   float64 `json:"schoolCount"`
	// RentalCost is a 0..100 cost index (higher = more expensive).
	RentalCost float64 `json:"rentalCost"`
	// FootTraffic is a 0..100 proxy built from POI and transit signals.
	FootTraffic     float64 `json:"footTraffic"`
	TransitStations float64 `json:"transitStations"`

	// Distances to the nearest landmark of each kind, meters. Zero means the
	// landmark query failed or found nothing in range.
	DistanceToMetro    float64 `json:"distanceToMetro"`
	DistanceToMall     float64 `json:"distanceToMall"`
	DistanceToSchool   float64 `json:"distanceToSchool"`
	DistanceToHospital float64 `json:"distanceToHospital"`

	// Category densities, POIs per square kilometer.
	ResidentialDensity float64 `json:"residentialDensity"`
	OfficeDensity      float64 `json:"officeDensity"`
	RetailDensity      float64 `json:"retailDensity"`
	DiningDensity      float64 `json:"diningDensity"`

	// SeasonalVariation is a 0..1 amplitude of expected seasonal swing.
	SeasonalVariation float64 `json:"seasonalVariation"`
	// EconomicIndex is a 0..100 composite of office and retail presence.
	EconomicIndex float64 `json:"economicIndex"`
}

// FeatureNames returns the canonical feature ordering shared by Vector and
// the trained model weights.
func FeatureNames() []string {
	return []string{
		"poiDensity", "populationDensity", "trafficScore", "competitionLevel",
		"competitorCount", "schoolDensity", "schoolCount", "rentalCost",
		"footTraffic", "transitStations", "distanceToMetro", "distanceToMall",
		"distanceToSchool", "distanceToHospital", "residentialDensity",
		"officeDensity", "retailDensity", "diningDensity", "seasonalVariation",
		"economicIndex",
	}
}

// Vector flattens the set in FeatureNames order.
func (f FeatureSet) Vector() []float64 {
	return []float64{
		f.POIDensity, f.PopulationDensity, f.TrafficScore, f.CompetitionLevel,
		f.CompetitorCount, f.SchoolDensity, f.SchoolCount, f.RentalCost,
		f.FootTraffic, f.TransitStations, f.DistanceToMetro, f.DistanceToMall,
		f.DistanceToSchool, f.DistanceToHospital, f.ResidentialDensity,
		f.OfficeDensity, f.RetailDensity, f.DiningDensity, f.SeasonalVariation,
		f.EconomicIndex,
	}
}

// Completeness is the fraction of signals that carry a non-zero value. Used by
// the prediction confidence derivation.
func (f FeatureSet) Completeness() float64 {
	vec := f.Vector()
	filled := 0
	for _, v := range vec {
		if v > 0 {
			filled++
		}
	}
	return float64(filled) / float64(len(vec))
}
