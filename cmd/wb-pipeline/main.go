// Command wb-pipeline runs the full fetch-normalize-upsert pipeline once.
//
// Configuration comes from defaults, an optional YAML file (WBP_CONFIG) and
// WBP_-prefixed environment variables. The process exits non-zero only on
// unrecoverable setup or persistence failure; indicator batches that yield
// zero rows are not fatal.
package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/Teekay7000/data-engineering-pipeline/pkg/collector"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/config"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/logging"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/normalize"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/pipeline"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/ratelimit"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/store"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/worldbank"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logger := logging.Setup(logging.DefaultConfig())
		logger.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: false,
		Output: os.Stderr,
	})

	wbClient, err := worldbank.New(worldbank.Config{
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.RequestTimeout,
		PerPage:   cfg.PerPage,
		StartYear: cfg.StartYear,
		EndYear:   cfg.EndYear,
		Retry: worldbank.RetryConfig{
			MaxAttempts: cfg.Retries,
			BackoffBase: cfg.BackoffBase,
			BackoffUnit: time.Second,
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create API client")
		return 1
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open database handle")
		return 1
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		logger.Error().Err(err).Str("host", cfg.DB.Host).Msg("Failed to connect to database")
		return 1
	}
	logger.Info().Str("host", cfg.DB.Host).Str("dbname", cfg.DB.Name).Msg("Connected to database")

	bulk := collector.NewBulkCollector(
		collector.NewIndicatorCollector(wbClient),
		ratelimit.NewPacer(cfg.RequestDelay),
		cfg.Countries,
		cfg.Indicators,
	)

	runner := pipeline.New(bulk, normalize.New(), store.New(db))
	if err := runner.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Pipeline run failed")
		return 1
	}

	logger.Info().Msg("Pipeline run complete")
	return 0
}
