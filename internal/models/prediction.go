// internal/models/prediction.go
package models

// Risk and market-potential grades.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"

	PotentialLow    = "low"
	PotentialMedium = "medium"
	PotentialHigh   = "high"
)

// BreakEvenUnreachable is the sentinel for "annual revenue never offsets
// annual cost under current assumptions".
const BreakEvenUnreachable = 999

// MLPrediction is the full prediction contract. The trained and the
// rule-based fallback paths both populate every field, so callers never need
// to know which path ran.
type MLPrediction struct {
	PredictedRevenue   float64            `json:"predictedRevenue"`
	PredictedOrders    float64            `json:"predictedOrders"`
	PredictedCustomers float64            `json:"predictedCustomers"`
	Confidence         float64            `json:"confidence"`
	RiskLevel          string             `json:"riskLevel"`
	RiskFactors        []string           `json:"riskFactors"`
	SuccessProbability float64            `json:"successProbability"`
	BreakEvenMonths    int                `json:"breakEvenTime"`
	ROI                float64            `json:"roi"`
	MarketPotential    string             `json:"marketPotential"`
	Strategy           []string           `json:"strategy"`
	SeasonalTrends     map[string]float64 `json:"seasonalTrends"`
}

// HistoricalSample is one historical store performance record, a read-only
// snapshot used only to train the predictive model.
type HistoricalSample struct {
	Features        FeatureSet `json:"features"`
	ActualRevenue   float64    `json:"actualRevenue"`
	ActualOrders    float64    `json:"actualOrders"`
	ActualCustomers float64    `json:"actualCustomers"`
	Success         bool       `json:"success"`
}
