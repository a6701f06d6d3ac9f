// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evaluation sources.
const (
	SourceEngine = "engine"
	SourceCache  = "cache"
	SourceShared = "shared"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rebate_evaluations_total",
			Help: "Total number of farm evaluations served, by source",
		},
		[]string{"source"},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rebate_evaluation_duration_seconds",
			Help:    "Duration of engine evaluations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		},
	)

	ProgramCashback = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rebate_program_cashback_dollars",
			Help:    "Estimated cash back per evaluated program in dollars",
			Buckets: []float64{0, 100, 500, 1000, 2500, 5000, 10000, 25000, 50000},
		},
		[]string{"program"},
	)

	InvalidInputs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rebate_invalid_inputs_total",
			Help: "Total number of farm inputs rejected at validation",
		},
	)
)
