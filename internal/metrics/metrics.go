package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translation_tasks_submitted_total",
		Help: "Total number of tasks submitted",
	})

	TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translation_tasks_completed_total",
		Help: "Total number of tasks completed",
	})

	TasksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translation_tasks_failed_total",
		Help: "Total number of tasks failed",
	})

	TasksRetried = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translation_tasks_retried_total",
		Help: "Total number of failed tasks re-queued manually",
	})

	ChunksTranslated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translation_chunks_translated_total",
		Help: "Total number of chunks translated successfully",
	})

	ChunkRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translation_chunk_retries_total",
		Help: "Total number of chunk translation retries",
	})

	ChunkDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "translation_chunk_duration_seconds",
		Help:    "Chunk translation duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	SnapshotsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translation_snapshots_saved_total",
		Help: "Total number of metadata snapshots written",
	})

	SnapshotFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translation_snapshot_failures_total",
		Help: "Total number of metadata snapshot write failures",
	})
)
