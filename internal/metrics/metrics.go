package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskgate_events_enqueued_total",
		Help: "Total number of events placed on the evaluation queue.",
	})

	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskgate_events_processed_total",
		Help: "Total number of events fully evaluated.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskgate_events_dropped_total",
		Help: "Total number of events rejected due to a full queue.",
	})

	EventProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "riskgate_event_processing_duration_ms",
		Help:    "End-to-end event evaluation latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "riskgate_queue_utilization_ratio",
		Help: "Current event queue utilization (0–1).",
	})

	RulesTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskgate_rules_triggered_total",
		Help: "Total number of rule triggers, labelled by rule ID and action.",
	}, []string{"rule_id", "action"})

	EvaluatorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskgate_evaluator_failures_total",
		Help: "Total number of rule evaluations that errored or panicked, labelled by rule type.",
	}, []string{"rule_type"})

	RuleReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskgate_rule_reloads_total",
		Help: "Total number of rule snapshot reload attempts, labelled by status.",
	}, []string{"status"})

	RuleDecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskgate_rule_decode_errors_total",
		Help: "Total number of rule bodies skipped because they failed to decode.",
	})

	ActiveRules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "riskgate_active_rules",
		Help: "Number of rules in the currently active snapshot.",
	})

	ScoreUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskgate_score_updates_total",
		Help: "Total number of risk score updates, labelled by status (ok, error, dropped).",
	}, []string{"status"})
)
