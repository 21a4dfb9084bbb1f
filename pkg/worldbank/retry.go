package worldbank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	wbRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wb_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	wbRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wb_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30},
	}, []string{"error_class"})

	wbRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wb_retry_exhausted_total",
		Help: "Total number of times the per-page retry budget was exhausted",
	})
)

// RetryConfig holds the configuration for the per-page retry loop.
type RetryConfig struct {
	// MaxAttempts is the number of attempts, including the initial request.
	MaxAttempts int

	// BackoffBase is the exponential base: attempt n waits
	// BackoffBase^n * BackoffUnit before the next attempt.
	BackoffBase float64

	// BackoffUnit scales the computed backoff. Production uses one second
	// (base 2.0 -> 2s, 4s, 8s); tests shrink it to keep runs fast.
	BackoffUnit time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BackoffBase: 2.0,
		BackoffUnit: time.Second,
	}
}

// backoffFor computes the wait after the given attempt (1-based).
func (c RetryConfig) backoffFor(attempt int) time.Duration {
	return time.Duration(math.Pow(c.BackoffBase, float64(attempt)) * float64(c.BackoffUnit))
}

// retryWithBackoff executes fn up to cfg.MaxAttempts times with exponential
// backoff between failures. Unlike a general-purpose retrier it retries every
// error: the caller treats an exhausted budget as "no data for this page",
// so there is nothing to gain from failing a page early.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		// A short envelope is a well-formed API error payload, not a
		// transient fault; retrying it would only burn the budget.
		if errors.Is(err, ErrShortResponse) {
			return err
		}

		lastErr = err
		class := errorClassOf(err)

		if attempt >= cfg.MaxAttempts {
			break
		}

		wait := cfg.backoffFor(attempt)
		wbRetriesTotal.WithLabelValues(string(class)).Inc()
		wbRetryBackoffSeconds.WithLabelValues(string(class)).Observe(wait.Seconds())

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Str("error_class", string(class)).
			Dur("backoff", wait).
			Msg("Attempt failed, retrying after backoff")

		select {
		case <-ctx.Done():
			logger.Warn().
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(wait):
		}
	}

	wbRetryExhaustedTotal.Inc()
	logger.Error().
		Err(lastErr).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("All retries exhausted")

	return fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, cfg.MaxAttempts, lastErr)
}

// errorClassOf extracts the class from a FetchError, defaulting to decode
// for plain parse errors.
func errorClassOf(err error) ErrorClass {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Class
	}
	return ErrorClassDecode
}
