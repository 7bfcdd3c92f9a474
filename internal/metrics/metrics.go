package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestTotal counts requests sent to the store by method and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airtable_client_requests_total",
			Help: "Total number of requests sent to the record store",
		},
		[]string{"method", "status"},
	)
	// RequestDuration is the latency of requests sent to the store.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airtable_client_request_duration_seconds",
			Help:    "Record store request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	// RateLimitWait is the time spent waiting on the client side limiter.
	RateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "airtable_client_rate_limit_wait_seconds",
			Help:    "Time spent waiting for the client rate limiter",
			Buckets: prometheus.DefBuckets,
		},
	)
	// MockRequestTotal counts requests served by the mock store.
	MockRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airtable_mock_requests_total",
			Help: "Total number of requests served by the mock record store",
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveRequest records one finished request. A status of 0 means the
// request never got a response.
func ObserveRequest(method string, status int, started time.Time) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	RequestTotal.WithLabelValues(strings.ToUpper(method), label).Inc()
	RequestDuration.WithLabelValues(strings.ToUpper(method)).Observe(time.Since(started).Seconds())
}
