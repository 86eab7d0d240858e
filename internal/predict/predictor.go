// Package predict estimates annual revenue and derived business metrics for
// a candidate location. A trained per-feature regression is used when enough
// history exists; otherwise a fixed rule-weight fallback produces the same
// prediction contract.
package predict

import (
	"math"
	"sync"

	"github.com/wateryu2030/yykhotdog-sub001/internal/common/config"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/logger"
	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

// ruleWeights is the fixed fallback weight table over normalized 0..100
// feature scores. Sums to 1.
var ruleWeights = []struct {
	name   string
	weight float64
	score  func(f models.FeatureSet) float64
}{
	{"poi", 0.20, func(f models.FeatureSet) float64 { return math.Min(f.POIDensity*1.25, 100) }},
	{"population", 0.20, func(f models.FeatureSet) float64 { return f.PopulationDensity }},
	{"traffic", 0.20, func(f models.FeatureSet) float64 { return f.TrafficScore }},
	{"competition", 0.15, func(f models.FeatureSet) float64 { return math.Max(0, 100-f.CompetitionLevel) }},
	{"foot_traffic", 0.15, func(f models.FeatureSet) float64 { return f.FootTraffic }},
	{"school", 0.10, func(f models.FeatureSet) float64 { return math.Min(f.SchoolDensity*2, 100) }},
}

// Predictor produces MLPredictions. The stored model is the only mutable
// state and is guarded for concurrent analyses.
type Predictor struct {
	cfg    config.PredictConfig
	logger logger.Logger

	mu    sync.RWMutex
	model *Model
}

func NewPredictor(cfg config.PredictConfig, log logger.Logger) *Predictor {
	return &Predictor{
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "predictor"}),
	}
}

// Train fits and installs a model. On InsufficientDataError the previously
// installed model (if any) stays active.
func (p *Predictor) Train(samples []models.HistoricalSample) (*Model, error) {
	model, err := Train(samples)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.model = model
	p.mu.Unlock()

	p.logger.Info("prediction model trained", map[string]interface{}{
		"samples":    model.SampleCount,
		"targetMean": model.TargetMean,
	})
	return model, nil
}

// HasModel reports whether a trained model is installed.
func (p *Predictor) HasModel() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model != nil
}

// Predict produces the full prediction contract for the feature set, via the
// trained model when present and the rule-weight fallback otherwise.
func (p *Predictor) Predict(features models.FeatureSet) *models.MLPrediction {
	p.mu.RLock()
	model := p.model
	p.mu.RUnlock()

	if model != nil {
		return p.predictTrained(features, model)
	}
	return p.predictFallback(features)
}

// predictTrained computes revenue as targetMean + sum((x_i-mean_i)*w_i),
// clamped to >= 0.
func (p *Predictor) predictTrained(features models.FeatureSet, model *Model) *models.MLPrediction {
	vec := features.Vector()
	revenue := model.TargetMean
	for i, w := range model.Weights {
		revenue += (vec[i] - model.FeatureMeans[i]) * w
	}
	revenue = math.Max(0, revenue)

	return p.derive(features, revenue, true)
}

// predictFallback computes revenue = baseRevenue * (0.5 + weightedScore/100).
func (p *Predictor) predictFallback(features models.FeatureSet) *models.MLPrediction {
	revenue := p.cfg.BaseRevenue * (0.5 + weightedFeatureScore(features)/100)
	return p.derive(features, revenue, false)
}

func weightedFeatureScore(features models.FeatureSet) float64 {
	score := 0.0
	for _, rw := range ruleWeights {
		score += clamp01Range(rw.score(features)) * rw.weight
	}
	return score
}

// derive fills every field of the prediction contract so callers are
// agnostic to which path ran.
func (p *Predictor) derive(features models.FeatureSet, annualRevenue float64, trained bool) *models.MLPrediction {
	orders := 0.0
	if p.cfg.AvgOrderValue > 0 {
		orders = annualRevenue / p.cfg.AvgOrderValue
	}
	customers := orders * p.cfg.RepeatRate

	riskFactors := riskFactorsFor(features)
	riskLevel := riskLevelFor(len(riskFactors))

	confidence := 0.3 + 0.5*features.Completeness() - 0.05*float64(len(riskFactors))
	if trained {
		confidence += 0.1
	}
	confidence = clampUnit(confidence)

	annualCost := p.cfg.MonthlyCost * 12
	breakEven := models.BreakEvenUnreachable
	if annualRevenue > annualCost {
		breakEven = int(math.Ceil(annualCost / annualRevenue * 12))
	}

	roi := 0.0
	if p.cfg.InitialInvestment > 0 {
		roi = (annualRevenue - annualCost) / p.cfg.InitialInvestment
	}

	score := weightedFeatureScore(features)
	success := clampUnit(0.25 + score/200 - 0.04*float64(len(riskFactors)))

	return &models.MLPrediction{
		PredictedRevenue:   math.Round(annualRevenue*100) / 100,
		PredictedOrders:    math.Round(orders),
		PredictedCustomers: math.Round(customers),
		Confidence:         confidence,
		RiskLevel:          riskLevel,
		RiskFactors:        riskFactors,
		SuccessProbability: success,
		BreakEvenMonths:    breakEven,
		ROI:                math.Round(roi*10000) / 10000,
		MarketPotential:    marketPotentialFor(features),
		Strategy:           strategyFor(features, riskLevel),
		SeasonalTrends:     seasonalTrendsFor(features),
	}
}

func riskFactorsFor(f models.FeatureSet) []string {
	factors := []string{}
	if f.CompetitionLevel >= 60 {
		factors = append(factors, "dense same-category competition")
	}
	if f.PopulationDensity < 20 {
		factors = append(factors, "low surrounding population")
	}
	if f.TrafficScore < 30 {
		factors = append(factors, "poor transit accessibility")
	}
	if f.RentalCost > 70 {
		factors = append(factors, "high rental cost pressure")
	}
	if f.FootTraffic < 30 {
		factors = append(factors, "weak foot traffic")
	}
	if f.EconomicIndex < 30 {
		factors = append(factors, "weak commercial environment")
	}
	if f.SeasonalVariation > 0.4 {
		factors = append(factors, "strong seasonal demand swings")
	}
	if f.POIDensity < 10 {
		factors = append(factors, "sparse point-of-interest coverage")
	}
	return factors
}

func riskLevelFor(count int) string {
	switch {
	case count >= 5:
		return models.RiskHigh
	case count >= 3:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func marketPotentialFor(f models.FeatureSet) string {
	positives := 0
	if f.PopulationDensity >= 50 {
		positives++
	}
	if f.SchoolDensity >= 40 {
		positives++
	}
	if f.FootTraffic >= 50 {
		positives++
	}
	if f.EconomicIndex >= 50 {
		positives++
	}
	if f.TrafficScore >= 50 {
		positives++
	}

	switch {
	case positives >= 4:
		return models.PotentialHigh
	case positives >= 2:
		return models.PotentialMedium
	default:
		return models.PotentialLow
	}
}

func strategyFor(f models.FeatureSet, riskLevel string) []string {
	strategies := []string{}
	if f.CompetitionLevel >= 60 {
		strategies = append(strategies, "differentiate the menu against nearby competitors")
	}
	if f.FootTraffic < 40 {
		strategies = append(strategies, "prioritize delivery platforms over walk-in volume")
	}
	if f.SchoolDensity >= 40 {
		strategies = append(strategies, "run student-oriented promotions around term time")
	}
	if f.RentalCost > 70 {
		strategies = append(strategies, "prefer a compact takeaway-first store format")
	}
	if f.OfficeDensity >= 30 {
		strategies = append(strategies, "target weekday lunch peaks with combo offers")
	}
	if len(strategies) == 0 {
		strategies = append(strategies, "standard opening playbook with staged marketing spend")
	}
	if riskLevel == models.RiskHigh {
		strategies = append(strategies, "stage the investment and re-evaluate after one quarter")
	}
	return strategies
}

// seasonalTrendsFor scales the baseline quarter multipliers by the location's
// seasonal variation amplitude.
func seasonalTrendsFor(f models.FeatureSet) map[string]float64 {
	base := map[string]float64{
		"spring": 0.95,
		"summer": 1.10,
		"autumn": 1.05,
		"winter": 0.90,
	}
	amp := 0.5 + f.SeasonalVariation
	trends := make(map[string]float64, len(base))
	for season, v := range base {
		trends[season] = math.Round((1+(v-1)*amp)*1000) / 1000
	}
	return trends
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func clamp01Range(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
