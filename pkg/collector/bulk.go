package collector

import (
	"context"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Teekay7000/data-engineering-pipeline/pkg/logging"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/ratelimit"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/worldbank"
)

// Prometheus metrics for bulk collection.
var (
	wbPairsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wb_pairs_fetched_total",
		Help: "Total (country, indicator) pairs processed",
	})

	wbRecordsCollectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wb_records_collected_total",
		Help: "Total raw records collected by indicator",
	}, []string{"indicator"})
)

// BulkCollector iterates the full country x indicator matrix in
// country-major order, pacing between every pair.
type BulkCollector struct {
	collector  *IndicatorCollector
	pacer      *ratelimit.Pacer
	countries  []string
	indicators map[string]string
	logger     zerolog.Logger
}

// NewBulkCollector creates a bulk collector over a fixed country list and
// indicator name -> code map.
func NewBulkCollector(ic *IndicatorCollector, pacer *ratelimit.Pacer, countries []string, indicators map[string]string) *BulkCollector {
	return &BulkCollector{
		collector:  ic,
		pacer:      pacer,
		countries:  countries,
		indicators: indicators,
		logger:     logging.NewLogger("bulk-collector"),
	}
}

// indicatorNames returns the indicator names in a stable order so that runs
// are reproducible despite map iteration order.
func (b *BulkCollector) indicatorNames() []string {
	names := make([]string, 0, len(b.indicators))
	for name := range b.indicators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CollectAll fetches every (country, indicator) pair and aggregates the raw
// records per indicator name, preserving fetch order. Progress is logged as
// done/total. The pacing wait applies after every pair regardless of
// outcome. The only error returned is context cancellation.
func (b *BulkCollector) CollectAll(ctx context.Context) (map[string][]worldbank.RawRecord, error) {
	names := b.indicatorNames()

	results := make(map[string][]worldbank.RawRecord, len(names))
	for _, name := range names {
		results[name] = nil
	}

	total := len(b.countries) * len(names)
	done := 0

	for _, country := range b.countries {
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return results, err
			}

			b.logger.Info().
				Int("done", done+1).
				Int("total", total).
				Str("indicator", name).
				Str("country", country).
				Msg("Fetching pair")

			records, err := b.collector.Collect(ctx, country, b.indicators[name])
			if err != nil {
				return results, err
			}
			results[name] = append(results[name], records...)

			done++
			wbPairsFetchedTotal.Inc()
			wbRecordsCollectedTotal.WithLabelValues(name).Add(float64(len(records)))

			if err := b.pacer.Wait(ctx); err != nil {
				return results, err
			}
		}
	}

	for _, name := range names {
		b.logger.Info().
			Str("indicator", name).
			Int("records", len(results[name])).
			Msg("Fetch complete")
	}

	return results, nil
}
