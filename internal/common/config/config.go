// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig        `mapstructure:"app"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Providers []ProviderConfig `mapstructure:"providers"`
	Geo       GeoConfig        `mapstructure:"geo"`
	Scoring   ScoringConfig    `mapstructure:"scoring"`
	Predict   PredictConfig    `mapstructure:"predict"`
	Batch     BatchConfig      `mapstructure:"batch"`
	Logging   LoggingConfig    `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// --- AI Provider Config ---

// ProviderConfig describes one LLM provider in the failover chain. Built once
// at startup, immutable thereafter; failover order is slice order.
type ProviderConfig struct {
	Name    string `mapstructure:"name"`
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	// Format selects the wire shape: "openai" (chat completions) or "rest"
	// (flat prompt envelope).
	Format string `mapstructure:"format"`
	// TimeoutMs bounds a single completion attempt.
	TimeoutMs int `mapstructure:"timeout_ms"`
}

// --- Geo / Feature Extraction Config ---

type GeoConfig struct {
	// BaseURL and APIKey configure the external geo data service. Empty
	// BaseURL leaves the engine without a geo provider (tests inject fakes).
	BaseURL            string `mapstructure:"base_url"`
	APIKey             string `mapstructure:"api_key"`
	SearchRadiusMeters int    `mapstructure:"search_radius_meters"`
	CacheTTLHours      int    `mapstructure:"cache_ttl_hours"`
	TimeoutMs          int    `mapstructure:"timeout_ms"`
}

// --- Scoring Config ---

// ScoringConfig optionally overrides the default dimension weights. Values are
// renormalized to sum 1 before use.
type ScoringConfig struct {
	Weights map[string]float64 `mapstructure:"weights"`
}

// --- Prediction Config ---

// PredictConfig holds the economic constants of the revenue model.
type PredictConfig struct {
	AvgOrderValue     float64 `mapstructure:"avg_order_value"`
	RepeatRate        float64 `mapstructure:"repeat_rate"`
	MonthlyCost       float64 `mapstructure:"monthly_cost"`
	InitialInvestment float64 `mapstructure:"initial_investment"`
	BaseRevenue       float64 `mapstructure:"base_revenue"`
}

// --- Batch Analysis Config ---

type BatchConfig struct {
	Size         int `mapstructure:"size"`
	PauseMs      int `mapstructure:"pause_ms"`
	MaxLocations int `mapstructure:"max_locations"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
