// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	syncJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_sync_jobs_total",
			Help: "Total number of broker sync jobs by terminal status",
		},
		[]string{"status"},
	)

	syncJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "journal_sync_job_duration_seconds",
			Help:    "Broker sync job duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)
)

// RecordHTTPRequest records one handled request. route is the matched pattern, not the raw path.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordSyncJob records a sync job reaching status.
func RecordSyncJob(status string, elapsed time.Duration) {
	syncJobsTotal.WithLabelValues(status).Inc()
	syncJobDuration.Observe(elapsed.Seconds())
}
