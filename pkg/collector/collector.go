// Package collector drives the page fetcher across the API's pagination:
// one (country, indicator) pair at a time, then the full country x indicator
// matrix with pacing between pairs.
package collector

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Teekay7000/data-engineering-pipeline/pkg/logging"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/worldbank"
)

// PageFetcher is the interface the World Bank client implements for
// single-page fetching.
type PageFetcher interface {
	// FetchPage fetches one page for a (country, indicator) pair.
	FetchPage(ctx context.Context, country, indicatorCode string, page int) (*worldbank.Page, error)
}

// IndicatorCollector accumulates all pages of one (country, indicator) pair.
type IndicatorCollector struct {
	fetcher PageFetcher
	logger  zerolog.Logger
}

// NewIndicatorCollector creates a collector over the given page fetcher.
func NewIndicatorCollector(fetcher PageFetcher) *IndicatorCollector {
	return &IndicatorCollector{
		fetcher: fetcher,
		logger:  logging.NewLogger("collector"),
	}
}

// Collect fetches every page for one (country, indicator) pair and returns
// the records in fetch order. A failed or short page stops pagination and
// returns whatever was accumulated so far; the first page failing yields an
// empty slice. The only error returned is context cancellation.
//
// Termination: the page index increases strictly and is bounded by the
// declared total. The total is re-read from every page's metadata and the
// maximum value seen is honored, so an API that transiently under-reports
// its page count cannot cause under-fetching. A declared total below one is
// treated as exactly one page.
func (c *IndicatorCollector) Collect(ctx context.Context, country, indicatorCode string) ([]worldbank.RawRecord, error) {
	logger := c.logger.With().
		Str("country", country).
		Str("indicator", indicatorCode).
		Logger()

	var records []worldbank.RawRecord
	totalPages := 1

	for page := 1; page <= totalPages; page++ {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		p, err := c.fetcher.FetchPage(ctx, country, indicatorCode, page)
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			logger.Warn().
				Err(err).
				Int("page", page).
				Int("records_so_far", len(records)).
				Msg("Stopping pagination for pair")
			break
		}

		if len(p.Records) > 0 {
			records = append(records, p.Records...)
		}

		if p.Meta.Pages > totalPages {
			totalPages = p.Meta.Pages
		}
	}

	return records, nil
}
