// Package metrics provides the centralized Prometheus metrics reference for
// the Falcon client. All metrics are defined in their respective packages
// (falcon, ratelimit) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/falcon):
//   - falcon_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - falcon_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - falcon_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/falcon):
//   - falcon_retries_total{error_class} (Counter): Retry attempts by error class
//   - falcon_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - falcon_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Rate Limit Metrics (pkg/ratelimit):
//   - falcon_rate_limit_remaining (Gauge): Requests remaining in the current window
//   - falcon_rate_limit_blocks_total (Counter): Requests blocked due to critical budget
//   - falcon_rate_limit_throttles_total (Counter): Requests throttled due to low budget
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(falcon_errors_total[5m])
//
//   # Remaining Rate Limit Budget
//   falcon_rate_limit_remaining
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(falcon_request_duration_seconds_bucket[5m]))
//
//   # Retry Exhaustion Rate
//   rate(falcon_retry_exhausted_total[5m])
