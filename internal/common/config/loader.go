// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like OPENAI_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when absent
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig fills credentials from well-known env vars when the
// config file left them empty.
func overrideEmptyConfig(cfg *Config) {
	for i := range cfg.Providers {
		if cfg.Providers[i].APIKey != "" {
			continue
		}
		envKey := strings.ToUpper(strings.ReplaceAll(cfg.Providers[i].Name, "-", "_")) + "_API_KEY"
		if val := os.Getenv(envKey); val != "" {
			cfg.Providers[i].APIKey = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}

	if cfg.Geo.APIKey == "" {
		if val := os.Getenv("GEO_API_KEY"); val != "" {
			cfg.Geo.APIKey = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "site-selection-engine"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Geo.SearchRadiusMeters <= 0 {
		cfg.Geo.SearchRadiusMeters = 1000
	}
	if cfg.Geo.CacheTTLHours <= 0 {
		cfg.Geo.CacheTTLHours = 24
	}
	if cfg.Geo.TimeoutMs <= 0 {
		cfg.Geo.TimeoutMs = 5000
	}

	for i := range cfg.Providers {
		if cfg.Providers[i].TimeoutMs <= 0 {
			cfg.Providers[i].TimeoutMs = 30000
		}
		if cfg.Providers[i].Format == "" {
			cfg.Providers[i].Format = "openai"
		}
	}

	if cfg.Predict.AvgOrderValue <= 0 {
		cfg.Predict.AvgOrderValue = 35
	}
	if cfg.Predict.RepeatRate <= 0 {
		cfg.Predict.RepeatRate = 0.6
	}
	if cfg.Predict.MonthlyCost <= 0 {
		cfg.Predict.MonthlyCost = 50000
	}
	if cfg.Predict.InitialInvestment <= 0 {
		cfg.Predict.InitialInvestment = 300000
	}
	if cfg.Predict.BaseRevenue <= 0 {
		// Annual baseline for the rule-based revenue path.
		cfg.Predict.BaseRevenue = 960000
	}

	if cfg.Batch.Size <= 0 {
		cfg.Batch.Size = 3
	}
	if cfg.Batch.PauseMs <= 0 {
		cfg.Batch.PauseMs = 500
	}
	if cfg.Batch.MaxLocations <= 0 {
		cfg.Batch.MaxLocations = 20
	}

	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "site-analyses"
	}
}

// validateConfig rejects configurations that cannot possibly work.
func validateConfig(cfg *Config) error {
	seen := make(map[string]struct{}, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider with empty name")
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate provider name: %s", p.Name)
		}
		seen[p.Name] = struct{}{}

		if p.Format != "openai" && p.Format != "rest" {
			return fmt.Errorf("provider %s: unknown format %q", p.Name, p.Format)
		}
		if p.Enabled && p.BaseURL == "" {
			return fmt.Errorf("provider %s: enabled but base_url is empty", p.Name)
		}
	}

	for dim, w := range cfg.Scoring.Weights {
		if w < 0 {
			return fmt.Errorf("scoring weight %s is negative", dim)
		}
	}

	return nil
}
