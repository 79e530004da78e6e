package translate

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	translationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "babelgate_translation_requests_total",
			Help: "Total number of translation backend requests",
		},
		[]string{"engine", "status"},
	)

	translationRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "babelgate_translation_request_duration_seconds",
			Help:    "Duration of translation backend requests in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"engine", "status"},
	)

	translationRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "babelgate_translation_request_size_bytes",
			Help:    "Size of translation request text in bytes",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
		[]string{"engine"},
	)

	translationResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "babelgate_translation_response_size_bytes",
			Help:    "Size of translation response text in bytes",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
		[]string{"engine"},
	)

	translationFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "babelgate_translation_fallbacks_total",
			Help: "Translations that returned the input unchanged",
		},
		[]string{"engine", "reason"},
	)

	translationSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "babelgate_translation_skipped_total",
			Help: "Translations skipped because source and target matched",
		},
		[]string{"engine"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "babelgate_translation_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"engine"},
	)
)

// MetricsCollector records translation metrics for one engine.
type MetricsCollector struct {
	engine string
}

// NewMetricsCollector creates a new metrics collector for an engine.
func NewMetricsCollector(engine string) *MetricsCollector {
	return &MetricsCollector{engine: engine}
}

// RecordTranslationRequest records metrics for a translation request.
func (mc *MetricsCollector) RecordTranslationRequest(duration time.Duration, success bool, requestSize, responseSize int) {
	status := "success"
	if !success {
		status = "error"
	}

	translationRequestsTotal.WithLabelValues(mc.engine, status).Inc()
	translationRequestDuration.WithLabelValues(mc.engine, status).Observe(duration.Seconds())
	translationRequestSize.WithLabelValues(mc.engine).Observe(float64(requestSize))
	if success {
		translationResponseSize.WithLabelValues(mc.engine).Observe(float64(responseSize))
	}
}

// RecordFallback records a translation that fell back to the input text.
func (mc *MetricsCollector) RecordFallback(reason string) {
	translationFallbacksTotal.WithLabelValues(mc.engine, reason).Inc()
}

// RecordSkipped records a translation skipped because no work was needed.
func (mc *MetricsCollector) RecordSkipped() {
	translationSkippedTotal.WithLabelValues(mc.engine).Inc()
}

// RecordBreakerState records the current circuit breaker state.
func (mc *MetricsCollector) RecordBreakerState(state float64) {
	breakerState.WithLabelValues(mc.engine).Set(state)
}

// InstrumentedTranslator decorates a Translator with request metrics.
type InstrumentedTranslator struct {
	next    Translator
	metrics *MetricsCollector
}

// NewInstrumentedTranslator wraps next so every Translate call is measured.
func NewInstrumentedTranslator(next Translator, engine EngineType) *InstrumentedTranslator {
	return &InstrumentedTranslator{
		next:    next,
		metrics: NewMetricsCollector(string(engine)),
	}
}

// Translate forwards to the wrapped backend and records the outcome.
func (t *InstrumentedTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	start := time.Now()
	out, err := t.next.Translate(ctx, text, sourceLang, targetLang)
	t.metrics.RecordTranslationRequest(time.Since(start), err == nil, len(text), len(out))
	return out, err
}

// CheckHealth forwards to the wrapped backend.
func (t *InstrumentedTranslator) CheckHealth(ctx context.Context) error {
	return t.next.CheckHealth(ctx)
}

// SupportedLanguages forwards to the wrapped backend.
func (t *InstrumentedTranslator) SupportedLanguages(ctx context.Context) ([]string, error) {
	return t.next.SupportedLanguages(ctx)
}
