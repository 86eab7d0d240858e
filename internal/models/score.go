// internal/models/score.go
package models

// Score dimension identifiers.
const (
	DimPOIDensity  = "poi_density"
	DimPopulation  = "population"
	DimTraffic     = "traffic"
	DimCompetition = "competition"
	DimSchool      = "school"
	DimRentalCost  = "rental_cost"
)

// ScoreDimensions lists the six dimensions in canonical order.
func ScoreDimensions() []string {
	return []string{
		DimPOIDensity, DimPopulation, DimTraffic,
		DimCompetition, DimSchool, DimRentalCost,
	}
}

// ScoreResult is the output of the multi-factor scoring engine.
// Invariant: OverallScore == round2(sum(SubScores[d]*Weights[d])) and the
// weights sum to 1 within 1e-6.
type ScoreResult struct {
	SubScores    map[string]float64 `json:"subScores"`
	Weights      map[string]float64 `json:"weights"`
	OverallScore float64            `json:"overallScore"`
	Grade        string             `json:"grade"`
}
