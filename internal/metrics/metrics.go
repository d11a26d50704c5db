package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered with the default registry through promauto

var (
	// ==================== HTTP METRICS ====================

	// HTTPRequestDuration tracks the duration of HTTP requests
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestsTotal counts total HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestsInFlight tracks currently processing requests
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// ==================== LINK METRICS ====================

	// LinksCreatedTotal counts created links by how the code was chosen
	LinksCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "links_created_total",
			Help: "Total number of links created",
		},
		[]string{"code_source"}, // generated, requested
	)

	// ResolvesTotal counts successful resolves
	ResolvesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "link_resolves_total",
			Help: "Total number of successful short code resolves",
		},
	)

	// CodeCollisionsTotal counts generated codes that were already taken
	CodeCollisionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "link_code_collisions_total",
			Help: "Total number of generated short codes rejected as duplicates",
		},
	)

	// DuplicateRequestsTotal counts requested codes that were already taken
	DuplicateRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "link_duplicate_requests_total",
			Help: "Total number of create calls rejected because the requested code exists",
		},
	)

	// NotFoundTotal counts lookups of unknown codes
	NotFoundTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_not_found_total",
			Help: "Total number of lookups for short codes that do not exist",
		},
		[]string{"operation"}, // resolve, diagnostics
	)

	// ==================== STORE METRICS ====================

	// StoreOperationDuration tracks storage latency
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of link store operations in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"backend", "operation"}, // insert, increment, get
	)

	// StoreErrorsTotal counts storage failures
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "Total number of link store failures",
		},
		[]string{"backend", "operation"},
	)
)

// RecordLinkCreated increments the created counter for the given code source
func RecordLinkCreated(codeSource string) {
	LinksCreatedTotal.WithLabelValues(codeSource).Inc()
}

// RecordResolve increments the resolve counter
func RecordResolve() {
	ResolvesTotal.Inc()
}

// RecordCodeCollision increments the generated-code collision counter
func RecordCodeCollision() {
	CodeCollisionsTotal.Inc()
}

// RecordDuplicateRequest increments the requested-code duplicate counter
func RecordDuplicateRequest() {
	DuplicateRequestsTotal.Inc()
}

// RecordNotFound increments the not-found counter for an operation
func RecordNotFound(operation string) {
	NotFoundTotal.WithLabelValues(operation).Inc()
}

// ObserveStore records how long a store operation took. Use with defer:
//
//	defer metrics.ObserveStore("postgres", "insert", time.Now())
func ObserveStore(backend, operation string, start time.Time) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}

// RecordStoreError increments the store error counter
func RecordStoreError(backend, operation string) {
	StoreErrorsTotal.WithLabelValues(backend, operation).Inc()
}
