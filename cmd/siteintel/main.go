// cmd/siteintel/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wateryu2030/yykhotdog-sub001/internal/aigateway"
	"github.com/wateryu2030/yykhotdog-sub001/internal/analysis"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/config"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/database"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/logger"
	"github.com/wateryu2030/yykhotdog-sub001/internal/features"
	"github.com/wateryu2030/yykhotdog-sub001/internal/geo"
	"github.com/wateryu2030/yykhotdog-sub001/internal/predict"
	"github.com/wateryu2030/yykhotdog-sub001/internal/scoring"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	analyzeFlag := flag.String("analyze", "", "analyze a single location and print the result")
	compareFlag := flag.String("compare", "", "comma-separated locations to compare")
	trainFlag := flag.Bool("train", false, "train the revenue model from store history before serving")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting site selection engine...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log = logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Geo data provider ---
	if cfg.Geo.BaseURL == "" {
		zapLog.Fatal("geo.base_url is required")
	}
	geoProvider := geo.NewHTTPProvider(cfg.Geo, log)

	// --- Region feature cache (optional, needs Redis) ---
	var cache *features.RegionCache
	if cfg.Database.Redis.Address != "" {
		redisClient := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return database.PingRedis(ctx, redisClient)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")

		cache = features.NewRegionCache(redisClient, time.Duration(cfg.Geo.CacheTTLHours)*time.Hour, log)
	} else {
		zapLog.Info("Redis not configured, region feature cache disabled")
	}

	// --- Analysis sinks (optional) ---
	var sinks []analysis.Store
	var samples analysis.SampleSource

	if cfg.Database.Postgres.Host != "" {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		sinks = append(sinks, analysis.NewPostgresStore(pg.DB))
		samples = analysis.NewPostgresSampleSource(pg.DB)
	}

	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		sinks = append(sinks, analysis.NewElasticStore(esClient.Client, cfg.Database.Elasticsearch.Index))
	}

	var store analysis.Store
	switch len(sinks) {
	case 0:
		zapLog.Info("no analysis sink configured, results will not be persisted")
	case 1:
		store = sinks[0]
	default:
		store = analysis.NewMultiStore(log, sinks...)
	}

	// --- Engine components ---
	gateway := aigateway.New(cfg.Providers, log)
	if !gateway.HasAvailableProvider() {
		zapLog.Warn("no AI provider enabled, narratives will be rule-based")
	}

	engine, err := scoring.NewEngine(scoring.Weights(cfg.Scoring.Weights))
	if err != nil {
		zapLog.Fatal("invalid scoring weights", zap.Error(err))
	}

	predictor := predict.NewPredictor(cfg.Predict, log)

	synthesizer := analysis.NewSynthesizer(analysis.Deps{
		Geo:       geoProvider,
		Extractor: features.NewExtractor(geoProvider, cache, cfg.Geo.SearchRadiusMeters, log),
		Engine:    engine,
		Predictor: predictor,
		Gateway:   gateway,
		Store:     store,
		Samples:   samples,
		Batch:     cfg.Batch,
		Logger:    log,
	})

	if *trainFlag {
		if err := synthesizer.TrainFromStore(ctx); err != nil {
			zapLog.Warn("model training failed, continuing with rule-based predictions", zap.Error(err))
		}
	}

	// One-shot modes print JSON and exit.
	if *analyzeFlag != "" {
		result, err := synthesizer.Analyze(ctx, *analyzeFlag)
		if err != nil {
			zapLog.Fatal("analysis failed", zap.Error(err))
		}
		printJSON(result)
		return
	}

	if *compareFlag != "" {
		locations := splitLocations(*compareFlag)
		report, err := synthesizer.Compare(ctx, locations)
		if err != nil {
			zapLog.Fatal("comparison failed", zap.Error(err))
		}
		printJSON(report)
		return
	}

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	zapLog.Info("Site selection engine ready")

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping...")

	// Give the async persistence goroutines a moment to drain.
	time.Sleep(time.Second)
	zapLog.Info("Site selection engine stopped gracefully")
}

func splitLocations(raw string) []string {
	parts := strings.Split(raw, ",")
	locations := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			locations = append(locations, trimmed)
		}
	}
	return locations
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(out))
}
