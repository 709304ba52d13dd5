// Package metrics holds the Prometheus collectors for the visit engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScheduleReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visit_engine_schedule_reads_total",
			Help: "Total number of schedule reads by view",
		},
		[]string{"view"},
	)

	OccurrencesComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visit_engine_occurrences_computed_total",
			Help: "Total number of occurrences returned to callers",
		},
	)

	NoPlanReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visit_engine_no_plan_reads_total",
			Help: "Reads that found no resolvable plan or start date",
		},
		[]string{"reason"},
	)

	Advancements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visit_engine_override_advancements_total",
			Help: "Override queue advancements by outcome",
		},
		[]string{"outcome"},
	)

	PersistRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visit_engine_persist_retries_total",
			Help: "Retries of override queue writes after transient failures",
		},
	)

	OverrideEdits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visit_engine_override_edits_total",
			Help: "Admin override queue writes by outcome",
		},
		[]string{"outcome"},
	)

	ReadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visit_engine_read_duration_seconds",
			Help:    "Duration of schedule reads including any advancement write",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view"},
	)
)

// Outcome labels.
const (
	OutcomePersisted = "persisted"
	OutcomeConflict  = "conflict"
	OutcomeFailed    = "failed"
)
