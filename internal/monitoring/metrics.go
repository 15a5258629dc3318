package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stage labels for StageDuration.
const (
	StageParse     = "parse"
	StageReconcile = "reconcile"
	StageDerive    = "derive"
	StageMerge     = "merge"
)

var (
	// ComparisonsTotal counts pipeline runs by outcome (ok, empty, error).
	ComparisonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightcompare_comparisons_total",
		Help: "Track comparisons run, by outcome.",
	}, []string{"result"})

	// StageDuration records how long each pipeline stage takes.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flightcompare_stage_duration_seconds",
		Help:    "Duration of comparison pipeline stages.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"stage"})

	// DayCorrections counts whole-day shifts applied by timestamp reconciliation.
	DayCorrections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightcompare_day_corrections_total",
		Help: "Day-boundary corrections applied to track timestamps, by pass.",
	}, []string{"pass"})

	// Ambiguities counts timestamp reversals that were left uncorrected.
	Ambiguities = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightcompare_reconcile_ambiguities_total",
		Help: "Timestamp reversals left uncorrected during reconciliation.",
	})

	// WarningsTotal counts non-fatal warnings by kind.
	WarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightcompare_warnings_total",
		Help: "Non-fatal pipeline warnings, by kind.",
	}, []string{"kind"})

	// CacheLookups counts response cache lookups by result (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightcompare_cache_lookups_total",
		Help: "Comparison response cache lookups.",
	}, []string{"result"})
)
