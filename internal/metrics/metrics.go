// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Plan generation outcomes.
const (
	OutcomeSuccess = "success"
)

var (
	PlanGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_generations_total",
		Help: "Plan generation runs by outcome (success or failure kind)",
	}, []string{"outcome"})

	PlanDaysSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_days_skipped_total",
		Help: "Generated plan days dropped during validation, by reason",
	}, []string{"reason"})

	PlanGenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "plan_generation_duration_seconds",
		Help:    "Wall time of a plan generation run",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	RecoveryTipFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recovery_tip_fallbacks_total",
		Help: "Recovery tips that fell back to the baseline tip",
	})

	SessionCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_completions_total",
		Help: "Session completion attempts by outcome",
	}, []string{"outcome"})

	RecoveryRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recovery_refresh_updates_total",
		Help: "Recovery records re-classified by the scheduler, by result",
	}, []string{"result"})

	IndexDocuments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "exercise_index_documents",
		Help: "Documents in the active exercise index",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
