package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Teekay7000/data-engineering-pipeline/pkg/ratelimit"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/worldbank"
)

// pairFetcher records the (country, indicator) order of requests and serves
// one single-page record per pair.
type pairFetcher struct {
	pairs []string
	fail  map[string]bool
}

func (f *pairFetcher) FetchPage(_ context.Context, country, indicatorCode string, page int) (*worldbank.Page, error) {
	key := country + "/" + indicatorCode
	f.pairs = append(f.pairs, key)
	if f.fail[key] {
		return nil, worldbank.ErrRetryExhausted
	}
	return &worldbank.Page{
		Meta:    worldbank.PageMeta{Page: page, Pages: 1},
		Records: []worldbank.RawRecord{{CountryISO3Code: country, Date: "2022"}},
	}, nil
}

func newBulk(fetcher PageFetcher, delay time.Duration, countries []string) *BulkCollector {
	return NewBulkCollector(
		NewIndicatorCollector(fetcher),
		ratelimit.NewPacer(delay),
		countries,
		map[string]string{
			"gdp_growth":   "NY.GDP.MKTP.KD.ZG",
			"unemployment": "SL.UEM.TOTL.ZS",
		},
	)
}

func TestCollectAll_CountryMajorOrder(t *testing.T) {
	fetcher := &pairFetcher{}
	bulk := newBulk(fetcher, 0, []string{"DZA", "KEN"})

	results, err := bulk.CollectAll(context.Background())
	if err != nil {
		t.Fatalf("CollectAll() error = %v", err)
	}

	want := []string{
		"DZA/NY.GDP.MKTP.KD.ZG",
		"DZA/SL.UEM.TOTL.ZS",
		"KEN/NY.GDP.MKTP.KD.ZG",
		"KEN/SL.UEM.TOTL.ZS",
	}
	if len(fetcher.pairs) != len(want) {
		t.Fatalf("Pairs fetched = %d, want %d", len(fetcher.pairs), len(want))
	}
	for i, pair := range want {
		if fetcher.pairs[i] != pair {
			t.Errorf("pairs[%d] = %q, want %q", i, fetcher.pairs[i], pair)
		}
	}

	for _, indicator := range []string{"gdp_growth", "unemployment"} {
		if got := len(results[indicator]); got != 2 {
			t.Errorf("results[%q] = %d records, want 2", indicator, got)
		}
	}
}

func TestCollectAll_PacesBetweenPairs(t *testing.T) {
	fetcher := &pairFetcher{}
	delay := 20 * time.Millisecond
	bulk := newBulk(fetcher, delay, []string{"KEN"})

	start := time.Now()
	if _, err := bulk.CollectAll(context.Background()); err != nil {
		t.Fatalf("CollectAll() error = %v", err)
	}
	elapsed := time.Since(start)

	// Two pairs -> two mandatory waits.
	if elapsed < 2*delay {
		t.Errorf("CollectAll took %v, want at least %v of pacing", elapsed, 2*delay)
	}
}

func TestCollectAll_PacesAfterFailedPair(t *testing.T) {
	fetcher := &pairFetcher{fail: map[string]bool{
		"KEN/NY.GDP.MKTP.KD.ZG": true,
		"KEN/SL.UEM.TOTL.ZS":    true,
	}}
	delay := 20 * time.Millisecond
	bulk := newBulk(fetcher, delay, []string{"KEN"})

	start := time.Now()
	results, err := bulk.CollectAll(context.Background())
	if err != nil {
		t.Fatalf("CollectAll() error = %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 2*delay {
		t.Errorf("CollectAll took %v, want pacing even when every pair fails", elapsed)
	}
	if got := len(results["gdp_growth"]); got != 0 {
		t.Errorf("results[gdp_growth] = %d records, want 0", got)
	}
}

func TestCollectAll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bulk := newBulk(&pairFetcher{}, 0, []string{"KEN"})

	_, err := bulk.CollectAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("CollectAll() error = %v, want context.Canceled", err)
	}
}
