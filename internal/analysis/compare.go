// internal/analysis/compare.go
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

// Compare analyzes several locations and ranks them. Locations run
// concurrently in small batches with a short pause between batches to stay
// under upstream rate limits; one location failing never aborts the others.
func (s *Synthesizer) Compare(ctx context.Context, locations []string) (*models.ComparisonReport, error) {
	if len(locations) == 0 {
		return nil, errors.New("comparison requires at least one location")
	}
	if len(locations) > s.batch.MaxLocations {
		return nil, fmt.Errorf("comparison limited to %d locations, got %d", s.batch.MaxLocations, len(locations))
	}

	entries := make([]models.ComparisonEntry, len(locations))

	for batchStart := 0; batchStart < len(locations); batchStart += s.batch.Size {
		batchEnd := batchStart + s.batch.Size
		if batchEnd > len(locations) {
			batchEnd = len(locations)
		}

		var wg sync.WaitGroup
		for i := batchStart; i < batchEnd; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				entries[idx] = s.compareOne(ctx, locations[idx])
			}(i)
		}
		wg.Wait()

		if batchEnd < len(locations) {
			select {
			case <-time.After(time.Duration(s.batch.PauseMs) * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	report := &models.ComparisonReport{
		Entries:   entries,
		CreatedAt: time.Now().UTC(),
	}
	s.summarize(report)
	return report, nil
}

func (s *Synthesizer) compareOne(ctx context.Context, location string) models.ComparisonEntry {
	entry := models.ComparisonEntry{Location: location}

	result, err := s.Analyze(ctx, location)
	if err != nil {
		s.logger.WithError(err).Warn("location failed inside comparison", map[string]interface{}{
			"location": location,
		})
		entry.Error = err.Error()
		return entry
	}
	entry.Result = result
	return entry
}

// summarize fills per-dimension stats, the ranking and the recommendation
// from the successful entries.
func (s *Synthesizer) summarize(report *models.ComparisonReport) {
	succeeded := make([]*models.AnalysisResult, 0, len(report.Entries))
	for i := range report.Entries {
		if report.Entries[i].Result != nil {
			succeeded = append(succeeded, report.Entries[i].Result)
		}
	}

	if len(succeeded) == 0 {
		report.Dimensions = map[string]models.DimensionStats{}
		report.Ranking = []string{}
		report.Recommendation = "no location could be analyzed"
		return
	}

	report.Dimensions = make(map[string]models.DimensionStats, len(models.ScoreDimensions()))
	for _, dim := range models.ScoreDimensions() {
		stats := models.DimensionStats{Max: -1, Min: 101}
		sum := 0.0
		for _, r := range succeeded {
			sub := r.Score.SubScores[dim]
			sum += sub
			if sub > stats.Max {
				stats.Max = sub
				stats.Best = r.Location
			}
			if sub < stats.Min {
				stats.Min = sub
				stats.Worst = r.Location
			}
		}
		stats.Avg = sum / float64(len(succeeded))
		report.Dimensions[dim] = stats
	}

	sort.SliceStable(succeeded, func(i, j int) bool {
		return succeeded[i].Score.OverallScore > succeeded[j].Score.OverallScore
	})
	report.Ranking = make([]string, 0, len(succeeded))
	for _, r := range succeeded {
		report.Ranking = append(report.Ranking, r.Location)
	}

	best := succeeded[0]
	report.Recommendation = fmt.Sprintf(
		"%s ranks first with an overall score of %.2f (%s), %s market potential and %s risk.",
		best.Location, best.Score.OverallScore, best.Score.Grade,
		best.Prediction.MarketPotential, best.Prediction.RiskLevel,
	)
	if len(report.Ranking) < len(report.Entries) {
		report.Recommendation += fmt.Sprintf(" %d of %d locations could not be analyzed.",
			len(report.Entries)-len(report.Ranking), len(report.Entries))
	}
}
