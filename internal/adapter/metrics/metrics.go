// Package metrics defines the Prometheus instruments shared by the adapters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rule engine metrics
var (
	// RuleEventsTotal tracks processed forum events by kind and outcome
	RuleEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "money_rule_events_total",
			Help: "Forum events processed by the rule engine, by event kind and outcome",
		},
		[]string{"event", "outcome"},
	)

	// BalanceEditsTotal tracks direct balance edits by status
	BalanceEditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "money_balance_edits_total",
			Help: "Direct balance edits by status (applied/denied/invalid)",
		},
		[]string{"status"},
	)

	// BalanceNotificationsTotal tracks published balance-changed notifications
	BalanceNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "money_balance_notifications_total",
			Help: "Balance-changed notifications published, by status",
		},
		[]string{"status"},
	)
)

// Webhook intake metrics
var (
	// WebhookEventsTotal tracks deliveries on the forum webhook by result
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "money_webhook_events_total",
			Help: "Forum webhook deliveries by result (accepted/rejected/invalid)",
		},
		[]string{"result"},
	)
)

// WebSocket metrics
var (
	// WebSocketClients tracks currently connected balance-stream clients
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "money_websocket_clients",
			Help: "Currently connected balance-stream websocket clients",
		},
	)
)

// Redis metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks Redis connection errors
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection errors",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)
