// Package pipeline wires the three stages of a run: collect raw records
// from the API, normalize them, and upsert them into the staging tables.
package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/Teekay7000/data-engineering-pipeline/pkg/logging"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/normalize"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/worldbank"
)

// Collector produces the raw dataset for the full run.
type Collector interface {
	CollectAll(ctx context.Context) (map[string][]worldbank.RawRecord, error)
}

// Persister is the write side of the staging store.
type Persister interface {
	InitSchema(ctx context.Context) error
	Upsert(ctx context.Context, indicator string, rows []normalize.Row) (int, error)
	CountRows(ctx context.Context, indicator string) (int, error)
}

// Runner executes one full pipeline run.
type Runner struct {
	collector  Collector
	normalizer *normalize.Normalizer
	store      Persister
	logger     zerolog.Logger
}

// New creates a runner over the given stages.
func New(collector Collector, normalizer *normalize.Normalizer, store Persister) *Runner {
	return &Runner{
		collector:  collector,
		normalizer: normalizer,
		store:      store,
		logger:     logging.NewLogger("pipeline"),
	}
}

// Run executes schema init, collection, and per-indicator normalization and
// persistence. An indicator whose batch normalizes to zero valid rows is
// reported and skipped without touching storage. A persistence error stops
// the run and propagates; indicators already written stay intact because
// each upsert commits independently.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info().Msg("Stage 1: initialising staging tables")
	if err := r.store.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	r.logger.Info().Msg("Stage 2: fetching raw data")
	datasets, err := r.collector.CollectAll(ctx)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	r.logger.Info().Msg("Stage 3: storing raw data")
	names := make([]string, 0, len(datasets))
	for name := range datasets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		records := datasets[name]
		rows, skipped := r.normalizer.Batch(records)
		if skipped > 0 {
			r.logger.Warn().
				Str("indicator", name).
				Int("skipped", skipped).
				Msg("Records rejected during normalization")
		}
		if len(rows) == 0 {
			r.logger.Warn().
				Str("indicator", name).
				Msg("No valid rows to insert")
			continue
		}

		written, err := r.store.Upsert(ctx, name, rows)
		if err != nil {
			return fmt.Errorf("persist %s: %w", name, err)
		}
		r.logger.Info().
			Str("indicator", name).
			Int("rows", written).
			Msg("Indicator stored")
	}

	for _, name := range names {
		count, err := r.store.CountRows(ctx, name)
		if err != nil {
			return fmt.Errorf("count %s: %w", name, err)
		}
		r.logger.Info().
			Str("indicator", name).
			Int("rows", count).
			Msg("Final row count")
	}

	return nil
}
