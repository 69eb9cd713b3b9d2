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

	QuotesCalculated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotes_calculated_total",
			Help: "Total number of quote calculations by integrity status",
		},
		[]string{"integrity_status"},
	)

	QuoteVersionsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quote_versions_saved_total",
			Help: "Total number of quote versions persisted",
		},
	)

	GuardrailBlocks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guardrail_blocks_total",
			Help: "Total number of calculations blocked below the margin floor",
		},
	)

	QuoteValue = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quote_total_price_dollars",
			Help:    "Distribution of calculated quote totals",
			Buckets: prometheus.ExponentialBuckets(1000, 2, 12),
		},
	)
)
