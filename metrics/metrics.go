package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Broker metrics
var (
	// StatusMessagesTotal counts inbound status messages by whether the payload was recognized
	StatusMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doorbell_status_messages_total",
			Help: "Inbound status messages by recognition result",
		},
		[]string{"recognized"},
	)

	// CommandsTotal counts control commands by outcome (sent, rejected, failed, limited)
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doorbell_commands_total",
			Help: "Control commands by outcome",
		},
		[]string{"outcome"},
	)

	BrokerConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "doorbell_broker_connected",
			Help: "1 while the MQTT connection is up",
		},
	)
)

// Broadcaster metrics
var (
	ViewerSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "doorbell_viewer_sessions",
			Help: "Currently connected viewer sessions",
		},
	)

	BroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "doorbell_broadcasts_total",
			Help: "Messages fanned out to viewer sessions",
		},
	)

	// SlowSessionsEvicted counts sessions dropped because their buffer was full
	SlowSessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "doorbell_slow_sessions_evicted_total",
			Help: "Viewer sessions evicted for not keeping up",
		},
	)
)

// Journal metrics
var (
	JournalErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "doorbell_journal_errors_total",
			Help: "Failed journal writes",
		},
	)

	JournalDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "doorbell_journal_dropped_total",
			Help: "Events dropped because the journal queue was full",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "doorbell_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"route", "code"},
	)
)
