// Package worldbank provides the World Bank v2 API fetch boundary: the page
// request client with retry/backoff and the raw record types it returns.
package worldbank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Teekay7000/data-engineering-pipeline/pkg/logging"
)

// Prometheus metrics for page requests.
var (
	wbRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wb_requests_total",
		Help: "Total page requests by indicator code and outcome",
	}, []string{"indicator", "status"})

	wbRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wb_request_duration_seconds",
		Help:    "Page request duration in seconds by indicator code",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"indicator"})
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.worldbank.org/v2".
	BaseURL string

	// UserAgent identifies this client on every request (required).
	UserAgent string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// PerPage is the requested page size.
	PerPage int

	// StartYear and EndYear bound the requested date range (inclusive).
	StartYear int
	EndYear   int

	// Retry controls the per-page retry loop.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration for the public API.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   "https://api.worldbank.org/v2",
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		PerPage:   1000,
		StartYear: 2000,
		EndYear:   2023,
		Retry:     DefaultRetryConfig(),
	}
}

// Client fetches single pages of indicator data.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new World Bank API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = 1000
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logging.NewLogger("fetcher"),
	}, nil
}

// PageURL builds the request URL for one page of a (country, indicator) pair.
func (c *Client) PageURL(country, indicatorCode string, page int) string {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("per_page", fmt.Sprintf("%d", c.config.PerPage))
	params.Set("date", fmt.Sprintf("%d:%d", c.config.StartYear, c.config.EndYear))
	params.Set("page", fmt.Sprintf("%d", page))

	return fmt.Sprintf("%s/country/%s/indicator/%s?%s",
		c.config.BaseURL, country, indicatorCode, params.Encode())
}

// FetchPage fetches one page of records for a (country, indicator) pair.
// It retries transiently failed requests within the configured budget; once
// the budget is spent it returns an error wrapping ErrRetryExhausted, which
// callers treat as "no data for this page" rather than a fatal condition.
func (c *Client) FetchPage(ctx context.Context, country, indicatorCode string, page int) (*Page, error) {
	pageURL := c.PageURL(country, indicatorCode, page)

	start := time.Now()
	defer func() {
		wbRequestDuration.WithLabelValues(indicatorCode).Observe(time.Since(start).Seconds())
	}()

	logger := c.logger.With().
		Str("country", country).
		Str("indicator", indicatorCode).
		Int("page", page).
		Logger()

	var result *Page
	err := retryWithBackoff(ctx, c.config.Retry, logger, func() error {
		var fetchErr error
		result, fetchErr = c.doFetch(ctx, pageURL, indicatorCode)
		return fetchErr
	})
	if err != nil {
		if !errors.Is(err, ErrShortResponse) {
			wbRequestsTotal.WithLabelValues(indicatorCode, "exhausted").Inc()
		}
		return nil, err
	}

	logger.Debug().
		Int("records", len(result.Records)).
		Msg("Page fetched")
	return result, nil
}

// doFetch performs a single request attempt.
func (c *Client) doFetch(ctx context.Context, pageURL, indicatorCode string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		wbRequestsTotal.WithLabelValues(indicatorCode, "network_error").Inc()
		return nil, &FetchError{Class: classify(0, err), URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	wbRequestsTotal.WithLabelValues(indicatorCode, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Class:      classify(resp.StatusCode, nil),
			URL:        pageURL,
			Err:        fmt.Errorf("unexpected status: %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Class: ErrorClassNetwork, URL: pageURL, Err: err}
	}

	page, err := parsePage(body)
	if err != nil {
		if errors.Is(err, ErrShortResponse) {
			return nil, err
		}
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassDecode,
			URL:        pageURL,
			Err:        err,
		}
	}
	return page, nil
}
