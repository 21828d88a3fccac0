package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EvaluationTicks counts evaluation loop ticks.
	EvaluationTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_evaluation_ticks_total",
			Help: "Total number of alert evaluation ticks",
		},
	)

	// RuleEvaluations counts individual rule evaluations.
	RuleEvaluations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_rule_evaluations_total",
			Help: "Total number of rule evaluations",
		},
	)

	// EvaluationErrors counts failed rule evaluations.
	EvaluationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_evaluation_errors_total",
			Help: "Total number of rule evaluation errors",
		},
	)

	// AlertsTriggered counts triggered alerts by severity.
	AlertsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_triggered_total",
			Help: "Total number of alerts triggered",
		},
		[]string{"severity"},
	)

	// NotificationsTotal counts notification attempts by channel and outcome.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_notifications_total",
			Help: "Total number of notification attempts",
		},
		[]string{"channel", "outcome"},
	)

	// SLAViolationsTotal counts detected SLA violations by type and severity.
	SLAViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sla_violations_total",
			Help: "Total number of SLA violations detected",
		},
		[]string{"type", "severity"},
	)

	// IngestedSnapshots counts execution snapshots recorded per source.
	IngestedSnapshots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "execution_snapshots_ingested_total",
			Help: "Total number of execution snapshots ingested",
		},
		[]string{"source"},
	)
)
