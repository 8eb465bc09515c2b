// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	GuardRejections   *prometheus.CounterVec
	OperationInFlight prometheus.Gauge

	// Submission metrics
	ConfirmationsTotal  *prometheus.CounterVec
	ConfirmationLatency prometheus.Histogram

	// Solana metrics
	RPCCallLatency   *prometheus.HistogramVec
	WSMessageLatency prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Cache metrics
	CacheRequests *prometheus.CounterVec

	// Health metrics
	LastConfirmedOperation prometheus.Gauge
	UptimeSeconds          prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_stake_desk"
	}

	return &Metrics{
		// Operation metrics
		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ops",
			Name:      "operations_total",
			Help:      "Total number of pool operations by kind and outcome class",
		}, []string{"kind", "class"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ops",
			Name:      "operation_duration_seconds",
			Help:      "Pool operation duration in seconds, from validation to confirmation",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 90},
		}, []string{"kind"}),
		GuardRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "rejections_total",
			Help:      "Total number of requests rejected by the financial guard",
		}, []string{"reason"}),
		OperationInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ops",
			Name:      "in_flight",
			Help:      "Number of orchestrators with an operation in flight",
		}),

		// Submission metrics
		ConfirmationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "submit",
			Name:      "confirmations_total",
			Help:      "Total number of submitted transactions by confirmation result",
		}, []string{"result"}),
		ConfirmationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "submit",
			Name:      "confirmation_latency_seconds",
			Help:      "Time from broadcast to confirmation result in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		}),

		// Solana metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		WSMessageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "ws_message_latency_seconds",
			Help:      "WebSocket message processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Cache metrics
		CacheRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Display cache lookups by result",
		}, []string{"result"}),

		// Health metrics
		LastConfirmedOperation: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_confirmed_operation_timestamp",
			Help:      "Unix timestamp of last confirmed operation",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordOperation records a finished operation. class is empty on success.
func RecordOperation(kind, class string, seconds float64) {
	if class == "" {
		class = "ok"
		DefaultMetrics.LastConfirmedOperation.Set(float64(time.Now().Unix()))
	}
	DefaultMetrics.OperationsTotal.WithLabelValues(kind, class).Inc()
	DefaultMetrics.OperationDuration.WithLabelValues(kind).Observe(seconds)
}

// SetInFlight moves the in-flight gauge up or down.
func SetInFlight(active bool) {
	if active {
		DefaultMetrics.OperationInFlight.Inc()
		return
	}
	DefaultMetrics.OperationInFlight.Dec()
}

// RecordGuardRejection increments the guard rejection counter.
func RecordGuardRejection(reason string) {
	DefaultMetrics.GuardRejections.WithLabelValues(reason).Inc()
}

// RecordConfirmation records the result and latency of a confirmation wait.
func RecordConfirmation(result string, seconds float64) {
	DefaultMetrics.ConfirmationsTotal.WithLabelValues(result).Inc()
	DefaultMetrics.ConfirmationLatency.Observe(seconds)
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordWSMessage records websocket message handling latency.
func RecordWSMessage(seconds float64) {
	DefaultMetrics.WSMessageLatency.Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordCache records a display cache lookup.
func RecordCache(hit bool) {
	if hit {
		DefaultMetrics.CacheRequests.WithLabelValues("hit").Inc()
		return
	}
	DefaultMetrics.CacheRequests.WithLabelValues("miss").Inc()
}

// AddUptime advances the uptime counter.
func AddUptime(seconds float64) {
	DefaultMetrics.UptimeSeconds.Add(seconds)
}
