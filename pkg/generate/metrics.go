package generate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "babelgate_generation_requests_total",
			Help: "Total number of generation requests by outcome",
		},
		[]string{"engine", "status"},
	)

	generationRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "babelgate_generation_request_duration_seconds",
			Help:    "Duration of generation requests in seconds",
			Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0},
		},
		[]string{"engine"},
	)
)

// Outcome labels.
const (
	statusOK             = "ok"
	statusHTTPError      = "http_error"
	statusInvalidFormat  = "invalid_format"
	statusTransportError = "transport_error"
)

func observe(engine EngineType, status string, start time.Time) {
	generationRequestsTotal.WithLabelValues(string(engine), status).Inc()
	generationRequestDuration.WithLabelValues(string(engine)).Observe(time.Since(start).Seconds())
}
