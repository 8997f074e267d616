package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Source acquisition
var (
	SourceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_requests_total",
			Help: "Upstream source requests by outcome (ok, transient_network, malformed_response)",
		},
		[]string{"source", "operation", "outcome"},
	)

	SourceRetriesExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_retries_exhausted_total",
			Help: "Source operations that used up every attempt",
		},
		[]string{"source", "operation"},
	)

	SourceFallback = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fallback_total",
			Help: "Structural fallback searches by outcome",
		},
		[]string{"source", "outcome"},
	)

	DishMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dish_matches_total",
			Help: "Menu lookups for the requested dish by outcome (found, no_match)",
		},
		[]string{"source", "outcome"},
	)
)

// Comparison
var (
	Comparisons = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comparisons_total",
			Help: "Comparisons produced, by result shape (matched, fallback_note)",
		},
		[]string{"outcome"},
	)

	ComparisonDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comparison_duration_seconds",
			Help:    "Wall-clock time of a full comparison",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
	)
)
