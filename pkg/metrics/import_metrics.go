package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImportRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "desk_import_runs_total",
		Help: "Completed import runs by target.",
	}, []string{"target"})

	ImportRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "desk_import_records_total",
		Help: "Imported records by target and outcome.",
	}, []string{"target", "outcome"})

	ImportRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "desk_import_run_duration_seconds",
		Help:    "Wall-clock duration of import runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"target"})
)
