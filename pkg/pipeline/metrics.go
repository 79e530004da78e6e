package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "babelgate_pipeline_requests_total",
			Help: "Total number of pipeline runs",
		},
	)

	pipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "babelgate_pipeline_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage; the done stage covers the whole run",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	detectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "babelgate_detections_total",
			Help: "Detected input languages",
		},
		[]string{"language"},
	)
)

func observeStage(stage Stage, start time.Time) {
	pipelineStageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
}
