package translate

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerConfig configures the translation circuit breaker.
type BreakerConfig struct {
	Enabled bool
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// DefaultBreakerConfig returns the defaults used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:     true,
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
	}
}

// BreakerTranslator fails fast while a backend keeps failing. An open
// breaker surfaces as an error, which the FallbackProvider turns into the
// usual identity fallback.
type BreakerTranslator struct {
	next Translator
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerTranslator wraps next in a circuit breaker named after engine.
func NewBreakerTranslator(next Translator, engine string, cfg BreakerConfig, logger *logrus.Logger) *BreakerTranslator {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = DefaultBreakerConfig().MaxFailures
	}
	metrics := NewMetricsCollector(engine)

	settings := gobreaker.Settings{
		Name:        engine,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// A caller giving up says nothing about the backend.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"engine": name,
				"from":   from.String(),
				"to":     to.String(),
			}).Warn("Translation circuit breaker changed state")
			metrics.RecordBreakerState(float64(to))
		},
	}

	return &BreakerTranslator{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// Translate runs the wrapped call through the breaker. A request whose
// context is already done never reaches the breaker.
func (b *BreakerTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Translate(ctx, text, sourceLang, targetLang)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// CheckHealth bypasses the breaker so operators can see the real state.
func (b *BreakerTranslator) CheckHealth(ctx context.Context) error {
	return b.next.CheckHealth(ctx)
}

// SupportedLanguages bypasses the breaker.
func (b *BreakerTranslator) SupportedLanguages(ctx context.Context) ([]string, error) {
	return b.next.SupportedLanguages(ctx)
}

// State reports the breaker state.
func (b *BreakerTranslator) State() gobreaker.State {
	return b.cb.State()
}
