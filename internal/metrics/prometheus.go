package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neuronflow_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neuronflow_api_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Node path service operations
	nodePathOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neuronflow_node_path_operations_total",
			Help: "Node path service operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neuronflow_cache_lookups_total",
			Help: "Node path cache lookups",
		},
		[]string{"result"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neuronflow_notifications_total",
			Help: "Participant notifications by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	// Active connections gauge
	activeConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "neuronflow_api_active_connections",
			Help: "Number of active connections",
		},
		[]string{"type"},
	)
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, durationSeconds float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusClass(statusCode)).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

func statusClass(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// RecordNodePathOperation counts one node path service call
func RecordNodePathOperation(operation, outcome string) {
	nodePathOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordCacheLookup counts a cache hit or miss
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

// RecordNotification counts an email or SMS delivery attempt
func RecordNotification(channel, outcome string) {
	notifications.WithLabelValues(channel, outcome).Inc()
}

// SetActiveConnections sets the number of active connections by type
func SetActiveConnections(connType string, count float64) {
	activeConnections.WithLabelValues(connType).Set(count)
}

// AddActiveConnections adjusts the active connection gauge by delta
func AddActiveConnections(connType string, delta float64) {
	activeConnections.WithLabelValues(connType).Add(delta)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
