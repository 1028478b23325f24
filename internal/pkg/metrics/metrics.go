package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "guardian_notification"

var (
	CandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Candidates evaluated, by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Channel send attempts, by channel and status",
		},
		[]string{"channel", "status"},
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Duration of a single channel send",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"channel"},
	)

	EscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Escalation timer transitions",
		},
		[]string{"result"},
	)

	DigestItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digest_items_total",
			Help:      "Digest items queued, sent and dropped",
		},
		[]string{"frequency", "operation"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Candidates waiting in the in-process queue",
		},
	)

	RealtimeConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_connections",
			Help:      "Open SSE and WebSocket connections",
		},
		[]string{"transport"},
	)

	CronRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cron_runs_total",
			Help:      "Background job runs, by job and status",
		},
		[]string{"job", "status"},
	)
)

// Outcome labels for CandidatesTotal
const (
	OutcomeDelivered  = "delivered"
	OutcomeBatched    = "batched"
	OutcomeSuppressed = "suppressed"
)

// Result labels for EscalationsTotal
const (
	EscalationArmed    = "armed"
	EscalationDisarmed = "disarmed"
	EscalationFired    = "fired"
	EscalationSkipped  = "skipped"
)
