// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	SnapshotsIngested  prometheus.Counter
	SnapshotsRejected  *prometheus.CounterVec
	CorrectionsApplied prometheus.Counter

	// Formula metrics
	EvaluationsTotal prometheus.Counter
	NeutralFallbacks *prometheus.CounterVec
	EvaluationErrors prometheus.Counter

	// Recomputation metrics
	SeriesRecomputed    prometheus.Counter
	PredictionsComputed prometheus.Counter
	RecomputeDuration   prometheus.Histogram

	// Validation metrics
	BacktestsRun          *prometheus.CounterVec
	BacktestDuration      prometheus.Histogram
	CombinationsEvaluated prometheus.Counter
	CombinationsSkipped   prometheus.Counter
	CombinationsFailed    prometheus.Counter
	ReportsGenerated      prometheus.Counter

	// Verification metrics
	PredictionsVerified  prometheus.Counter
	VerificationMatches  prometheus.Counter
	VerificationDiverged prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRecompute prometheus.Gauge
	LastSuccessfulBacktest  prometheus.Gauge
	UptimeSeconds           prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "fantasy_value_lab"
	}

	return &Metrics{
		// Ingestion metrics
		SnapshotsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "snapshots_ingested_total",
			Help:      "Total number of raw snapshots stored",
		}),
		SnapshotsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "snapshots_rejected_total",
			Help:      "Total number of snapshots rejected by reason",
		}, []string{"reason"}),
		CorrectionsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "corrections_applied_total",
			Help:      "Total number of correction records appended",
		}),

		// Formula metrics
		EvaluationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "formula",
			Name:      "evaluations_total",
			Help:      "Total number of formula evaluations",
		}),
		NeutralFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "formula",
			Name:      "neutral_fallbacks_total",
			Help:      "Total number of neutral multiplier fallbacks by reason",
		}, []string{"reason"}),
		EvaluationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "formula",
			Name:      "evaluation_errors_total",
			Help:      "Total number of failed formula evaluations",
		}),

		// Recomputation metrics
		SeriesRecomputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trend",
			Name:      "series_recomputed_total",
			Help:      "Total number of prediction series recomputations",
		}),
		PredictionsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trend",
			Name:      "predictions_computed_total",
			Help:      "Total number of predictions computed",
		}),
		RecomputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trend",
			Name:      "recompute_duration_seconds",
			Help:      "Series recomputation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Validation metrics
		BacktestsRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "backtests_run_total",
			Help:      "Total number of backtests by status",
		}, []string{"status"}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "backtest_duration_seconds",
			Help:      "Backtest execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		CombinationsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "combinations_evaluated_total",
			Help:      "Total number of grid combinations evaluated",
		}),
		CombinationsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "combinations_skipped_total",
			Help:      "Total number of grid combinations skipped as already recorded",
		}),
		CombinationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "combinations_failed_total",
			Help:      "Total number of grid combinations that failed to evaluate",
		}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Verification metrics
		PredictionsVerified: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "predictions_verified_total",
			Help:      "Total number of predictions verified by recomputation",
		}),
		VerificationMatches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "matches_total",
			Help:      "Total number of verified predictions that matched",
		}),
		VerificationDiverged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "divergences_total",
			Help:      "Total number of verified predictions that diverged",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRecompute: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_recompute_timestamp",
			Help:      "Unix timestamp of last successful series recomputation",
		}),
		LastSuccessfulBacktest: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_backtest_timestamp",
			Help:      "Unix timestamp of last successful backtest",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEvaluation increments the evaluation counter and records every
// neutral fallback reason from the prediction.
func RecordEvaluation(neutralReasons []string) {
	DefaultMetrics.EvaluationsTotal.Inc()
	for _, reason := range neutralReasons {
		DefaultMetrics.NeutralFallbacks.WithLabelValues(reason).Inc()
	}
}

// RecordVerification increments the verification counters.
func RecordVerification(match bool) {
	DefaultMetrics.PredictionsVerified.Inc()
	if match {
		DefaultMetrics.VerificationMatches.Inc()
	} else {
		DefaultMetrics.VerificationDiverged.Inc()
	}
}
