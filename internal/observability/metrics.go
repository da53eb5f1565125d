package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"murmur/internal/models"
)

var (
	// AccountsRegistered counts successful sign-ups.
	AccountsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "murmur_accounts_registered_total",
		Help: "Total number of accounts registered",
	})

	// SocialActions counts engine operations by action and outcome code.
	SocialActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_social_actions_total",
		Help: "Total social actions by action and outcome",
	}, []string{"action", "outcome"})

	// NotificationsDelivered counts notifications appended to account logs.
	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_notifications_delivered_total",
		Help: "Total notifications delivered by kind",
	}, []string{"kind"})

	// SinkFailures counts delivery sink errors by sink name.
	SinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_notification_sink_failures_total",
		Help: "Total notification sink failures by sink",
	}, []string{"sink"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "murmur_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "murmur_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// Outcome maps an operation result to a metric label: "ok", the AppError
// code, or "error".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, code := range outcomeCodes {
		if models.HasCode(err, code) {
			return code
		}
	}
	return "error"
}

var outcomeCodes = []string{
	models.CodeDuplicateUsername,
	models.CodeInvalidPassword,
	models.CodeNotAuthenticated,
	models.CodeSelfReferenceRejected,
	models.CodeDuplicateEdge,
	models.CodeMissingEdge,
	models.CodeUnknownPostKind,
	models.CodeWrongCredential,
	models.CodeInvalidOperationForKind,
	models.CodeInvalidDiscount,
	models.CodeAlreadyLiked,
	models.CodeNotFound,
	models.CodeValidation,
	models.CodeNetworkConflict,
}

// RecordAction increments SocialActions for action with the outcome of err.
func RecordAction(action string, err error) {
	SocialActions.WithLabelValues(action, Outcome(err)).Inc()
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
