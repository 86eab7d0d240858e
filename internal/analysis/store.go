// internal/analysis/store.go
package analysis

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/wateryu2030/yykhotdog-sub001/internal/common/logger"
	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

// Store persists completed analyses. Persistence is fire-and-forget from the
// synthesizer's point of view: Save errors are logged, never propagated.
type Store interface {
	Save(ctx context.Context, result *models.AnalysisResult) error
}

// SampleSource loads historical store performance for model training.
type SampleSource interface {
	LoadSamples(ctx context.Context) ([]models.HistoricalSample, error)
}

// PostgresStore writes analyses into the site_analyses table. The full result
// is kept as a JSON payload next to the queryable columns.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertAnalysisSQL = `
	INSERT INTO site_analyses
		(id, location, longitude, latitude, province, city, district,
		 overall_score, grade, predicted_revenue, risk_level, payload, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

func (s *PostgresStore) Save(ctx context.Context, result *models.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, insertAnalysisSQL,
		result.ID,
		result.Location,
		result.Coordinates.Longitude,
		result.Coordinates.Latitude,
		result.Region.Province,
		result.Region.City,
		result.Region.District,
		result.Score.OverallScore,
		result.Score.Grade,
		result.Prediction.PredictedRevenue,
		result.Prediction.RiskLevel,
		payload,
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis %s: %w", result.ID, err)
	}
	return nil
}

// ElasticStore indexes analyses as documents for search and dashboards.
type ElasticStore struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticStore(client *elasticsearch.Client, index string) *ElasticStore {
	if index == "" {
		index = "site-analyses"
	}
	return &ElasticStore{client: client, index: index}
}

func (s *ElasticStore) Save(ctx context.Context, result *models.AnalysisResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(result.ID),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index analysis %s: %w", result.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index analysis %s: %s", result.ID, res.String())
	}
	return nil
}

// MultiStore fans a save out to several sinks; the first error wins but every
// sink is attempted.
type MultiStore struct {
	stores []Store
	logger logger.Logger
}

func NewMultiStore(log logger.Logger, stores ...Store) *MultiStore {
	return &MultiStore{stores: stores, logger: log}
}

func (m *MultiStore) Save(ctx context.Context, result *models.AnalysisResult) error {
	var firstErr error
	for _, s := range m.stores {
		if err := s.Save(ctx, result); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			m.logger.Warn("analysis sink failed", map[string]interface{}{
				"analysisId": result.ID,
				"error":      err.Error(),
			})
		}
	}
	return firstErr
}

// PostgresSampleSource loads training samples from the store_history table.
type PostgresSampleSource struct {
	db *sql.DB
}

func NewPostgresSampleSource(db *sql.DB) *PostgresSampleSource {
	return &PostgresSampleSource{db: db}
}

const selectSamplesSQL = `
	SELECT features, actual_revenue, actual_orders, actual_customers, success
	FROM store_history
	ORDER BY recorded_at DESC`

func (s *PostgresSampleSource) LoadSamples(ctx context.Context) ([]models.HistoricalSample, error) {
	rows, err := s.db.QueryContext(ctx, selectSamplesSQL)
	if err != nil {
		return nil, fmt.Errorf("query store history: %w", err)
	}
	defer rows.Close()

	var samples []models.HistoricalSample
	for rows.Next() {
		var (
			featuresJSON []byte
			sample       models.HistoricalSample
		)
		if err := rows.Scan(&featuresJSON, &sample.ActualRevenue, &sample.ActualOrders, &sample.ActualCustomers, &sample.Success); err != nil {
			return nil, fmt.Errorf("scan store history row: %w", err)
		}
		if err := json.Unmarshal(featuresJSON, &sample.Features); err != nil {
			return nil, fmt.Errorf("decode store history features: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate store history: %w", err)
	}
	return samples, nil
}
