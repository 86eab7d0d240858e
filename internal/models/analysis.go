// internal/models/analysis.go
package models

import "time"

// Narrative is the qualitative assessment of a location. When every AI
// provider is exhausted it is filled by the rule-based fallback instead.
type Narrative struct {
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Risks           []string `json:"risks"`
	Recommendations []string `json:"recommendations"`
	// Source records how the narrative was produced: the provider name,
	// "regex-fallback", or "rule-based".
	Source string `json:"source"`
}

// AnalysisResult is the unit returned to callers and persisted by the
// external store. Never mutated after construction.
type AnalysisResult struct {
	ID          string       `json:"id"`
	Location    string       `json:"location"`
	Coordinates Coordinates  `json:"coordinates"`
	Region      Region       `json:"region"`
	Features    FeatureSet   `json:"features"`
	Score       ScoreResult  `json:"score"`
	Prediction  MLPrediction `json:"prediction"`
	Narrative   Narrative    `json:"narrative"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// ComparisonEntry is one location's outcome inside a comparison run. Failed
// locations keep their error message and leave Result nil.
type ComparisonEntry struct {
	Location string          `json:"location"`
	Result   *AnalysisResult `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// DimensionStats summarizes one score dimension across compared locations.
type DimensionStats struct {
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
	Avg   float64 `json:"avg"`
	Best  string  `json:"bestLocation"`
	Worst string  `json:"worstLocation"`
}

// ComparisonReport is the output of a multi-location comparison.
type ComparisonReport struct {
	Entries        []ComparisonEntry         `json:"entries"`
	Dimensions     map[string]DimensionStats `json:"dimensions"`
	Ranking        []string                  `json:"ranking"`
	Recommendation string                    `json:"recommendation"`
	CreatedAt      time.Time                 `json:"createdAt"`
}
