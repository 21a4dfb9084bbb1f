// Package ratelimit implements the pipeline's politeness pacing: a fixed,
// mandatory delay between consecutive (country, indicator) requests so the
// remote service's implicit rate limits are respected.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for pacing.
var (
	wbPacerWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wb_pacer_waits_total",
		Help: "Total number of inter-request pacing waits",
	})

	wbPacerWaitSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wb_pacer_wait_seconds_total",
		Help: "Cumulative time spent in inter-request pacing waits",
	})
)

// Pacer enforces a fixed interval between requests. The wait is applied
// after every request pair regardless of outcome; it is never skipped on
// failure.
type Pacer struct {
	interval time.Duration
}

// NewPacer creates a pacer with the given inter-request interval.
// A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Interval returns the configured inter-request interval.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait blocks for the configured interval or until the context is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return nil
	}

	wbPacerWaitsTotal.Inc()
	wbPacerWaitSeconds.Add(p.interval.Seconds())

	select {
	case <-ctx.Done():
		return fmt.Errorf("pacing wait interrupted: %w", ctx.Err())
	case <-time.After(p.interval):
		return nil
	}
}
