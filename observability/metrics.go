package observability

import (
	"net/http"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RefCacheEventsTotal counts reference cache events by category and event
	// (hit, miss, dedup, build_failed)
	RefCacheEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrref_refcache_events_total",
			Help: "Total number of reference cache events by category and event",
		},
		[]string{"category", "event"},
	)

	// RefCacheEntries tracks the number of entries in each published mapping
	RefCacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hrref_refcache_entries",
			Help: "Number of identifiers in the published mapping per category",
		},
		[]string{"category"},
	)

	// StoreFetchesTotal counts bulk category fetches by status
	StoreFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrref_store_fetches_total",
			Help: "Total number of bulk category fetches by category and status",
		},
		[]string{"category", "status"}, // success, failure
	)

	// StoreFetchDuration tracks bulk fetch duration in seconds
	StoreFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hrref_store_fetch_duration_seconds",
			Help:    "Bulk category fetch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to 8s
		},
		[]string{"category"},
	)

	// LookupMissesTotal counts foreign keys with no entry in their mapping
	LookupMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrref_lookup_misses_total",
			Help: "Total number of foreign keys that resolved to an empty display value",
		},
		[]string{"category"},
	)

	// HTTPRequestsTotal counts remote store HTTP requests by method, status code, and endpoint
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrref_http_requests_total",
			Help: "Total number of remote store HTTP requests by method and status",
		},
		[]string{"method", "status_code", "endpoint"},
	)

	// HTTPRequestDuration tracks remote store HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hrref_http_request_duration_seconds",
			Help:    "Remote store HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to 16s
		},
		[]string{"method", "endpoint"},
	)

	// CircuitBreakerState tracks circuit breaker state by endpoint
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hrref_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"endpoint"},
	)

	// CircuitBreakerFailures counts failures recorded by circuit breakers
	CircuitBreakerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrref_circuit_breaker_failures_total",
			Help: "Total number of circuit breaker failures",
		},
		[]string{"endpoint"},
	)

	// APIRequestsTotal counts API server requests by route and status code
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrref_api_requests_total",
			Help: "Total number of API requests by route and status",
		},
		[]string{"route", "status_code"},
	)
)

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// GetCounterValue retrieves the current value of a counter metric with the given labels.
// This is primarily intended for testing
func GetCounterValue(counter *prometheus.CounterVec, labels ...string) (float64, error) {
	metric, err := counter.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}

	var pb dto.Metric
	if err := metric.Write(&pb); err != nil {
		return 0, err
	}
	if pb.Counter != nil {
		return pb.Counter.GetValue(), nil
	}
	return 0, nil
}

// GetGaugeValue retrieves the current value of a gauge metric with the given labels
func GetGaugeValue(gauge *prometheus.GaugeVec, labels ...string) (float64, error) {
	metric, err := gauge.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}

	var pb dto.Metric
	if err := metric.Write(&pb); err != nil {
		return 0, err
	}
	if pb.Gauge != nil {
		return pb.Gauge.GetValue(), nil
	}
	return 0, nil
}
