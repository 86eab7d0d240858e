// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_provider_attempts_total",
			Help: "Total completion attempts per AI provider",
		},
		[]string{"provider"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_provider_failures_total",
			Help: "Failed completion attempts per AI provider and reason",
		},
		[]string{"provider", "reason"},
	)

	AnalysesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_analyses_total",
			Help: "Total site analyses by outcome",
		},
		[]string{"status"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "site_analysis_duration_seconds",
			Help: "Duration of a full site analysis in seconds",
		},
		[]string{"status"},
	)

	FeatureCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feature_cache_lookups_total",
			Help: "Region feature cache lookups by result",
		},
		[]string{"result"},
	)
)
