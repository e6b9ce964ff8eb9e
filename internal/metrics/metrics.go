package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "caseflow_sweeps_total",
			Help: "Total number of alert sweeps executed",
		},
	)

	SweepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "caseflow_sweep_errors_total",
			Help: "Total number of per-case evaluation errors during sweeps",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "caseflow_sweep_duration_seconds",
			Help:    "Duration of a full alert sweep in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CasesEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "caseflow_cases_evaluated_total",
			Help: "Total number of case evaluations across sweeps",
		},
	)

	ActiveAlerts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "caseflow_active_alerts",
			Help: "Active alerts observed by the most recent sweep",
		},
		[]string{"kind", "severity"},
	)

	CaseMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseflow_case_mutations_total",
			Help: "Total case mutations by action and outcome",
		},
		[]string{"action", "status"},
	)
)
