// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vc_evaluations_completed_total",
			Help: "Total number of evaluations scored and stored",
		},
		[]string{"stage", "category"},
	)

	EvaluationsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vc_evaluations_rejected_total",
			Help: "Total number of submissions rejected before scoring",
		},
		[]string{"stage", "kind"},
	)

	AntiGamingFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vc_anti_gaming_flags_total",
			Help: "Anti-gaming flags raised, by check",
		},
		[]string{"code"},
	)

	EvaluationScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vc_evaluation_total_score",
			Help:    "Distribution of total readiness scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"stage"},
	)

	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "vc_evaluation_duration_seconds",
			Help: "Duration of evaluation processing in seconds",
		},
		[]string{"stage"},
	)

	PremiumUnlocks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vc_premium_unlocks_total",
			Help: "Premium unlock attempts by outcome",
		},
		[]string{"status"},
	)
)
