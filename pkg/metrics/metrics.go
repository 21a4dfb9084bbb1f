// Package metrics documents the Prometheus metrics exposed by the pipeline.
// Metrics are defined in the package that owns the operation (worldbank,
// collector, ratelimit, store) via promauto to avoid circular dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the pipeline.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/worldbank):
//   - wb_requests_total{indicator, status} (Counter): Page requests by indicator code and outcome
//   - wb_request_duration_seconds{indicator} (Histogram): Page request duration
//
// Retry Metrics (pkg/worldbank):
//   - wb_retries_total{error_class} (Counter): Retry attempts by error class
//   - wb_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - wb_retry_exhausted_total (Counter): Pages that spent the whole retry budget
//
// Collection Metrics (pkg/collector):
//   - wb_pairs_fetched_total (Counter): (country, indicator) pairs processed
//   - wb_records_collected_total{indicator} (Counter): Raw records collected
//
// Pacing Metrics (pkg/ratelimit):
//   - wb_pacer_waits_total (Counter): Inter-request pacing waits
//   - wb_pacer_wait_seconds_total (Counter): Cumulative pacing wait time
//
// Persistence Metrics (pkg/store):
//   - wb_rows_upserted_total{table} (Counter): Rows upserted by table
//   - wb_upsert_failures_total{table} (Counter): Rolled back upsert batches
//
// Example Prometheus Queries:
//
//   # Retry exhaustion rate
//   rate(wb_retry_exhausted_total[5m])
//
//   # P95 page request latency
//   histogram_quantile(0.95, rate(wb_request_duration_seconds_bucket[5m]))
//
//   # Records collected per indicator
//   sum by (indicator) (wb_records_collected_total)
