package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// EngineType represents the type of translation engine to use.
type EngineType string

const (
	// EngineLibreTranslate uses a LibreTranslate server as a hosted service.
	EngineLibreTranslate EngineType = "libretranslate"
	// EngineIndicTrans uses an IndicTrans model behind a Gradio-style
	// prediction endpoint, addressed by locale tags such as "hin_Deva".
	EngineIndicTrans EngineType = "indictrans"
)

// Config holds configuration for creating a Translator instance.
type Config struct {
	// Engine specifies which translation engine to use.
	Engine EngineType
	// BaseURL is the base URL for the translation engine API.
	// Empty selects the engine's default URL.
	BaseURL string
	// APIKey is sent to the backend when set.
	APIKey string
	// Timeout bounds each backend call. Zero means no client-side timeout:
	// a hung backend blocks until the request context is cancelled.
	Timeout time.Duration
	// Breaker configures the optional circuit breaker.
	Breaker BreakerConfig
	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// NewTranslator creates a new Translator instance based on the configuration.
func NewTranslator(cfg Config) (Translator, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	// Set default base URL if not provided
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultLibreTranslateURL
		if cfg.Engine == EngineIndicTrans {
			cfg.BaseURL = DefaultIndicTransURL
		}
	}

	cfg.Logger.WithFields(logrus.Fields{
		"engine":   cfg.Engine,
		"base_url": cfg.BaseURL,
		"timeout":  cfg.Timeout.String(),
	}).Info("Creating translator instance")

	switch cfg.Engine {
	case EngineLibreTranslate:
		return NewLibreTranslateClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout, cfg.Logger), nil
	case EngineIndicTrans:
		return NewIndicTransClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout, cfg.Logger), nil
	default:
		cfg.Logger.WithFields(logrus.Fields{
			"engine": cfg.Engine,
		}).Error("Unknown translation engine")
		return nil, fmt.Errorf("unknown translation engine: %s", cfg.Engine)
	}
}

// NewProvider builds the pipeline-facing Provider: the configured backend,
// wrapped with metrics, an optional circuit breaker, the engine's language
// policy and the identity fallback.
//
// For the hosted engine the supported-language set is fetched here, once.
func NewProvider(ctx context.Context, cfg Config) (*FallbackProvider, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	backend, err := NewTranslator(cfg)
	if err != nil {
		return nil, err
	}

	var wrapped Translator = NewInstrumentedTranslator(backend, cfg.Engine)
	if cfg.Breaker.Enabled {
		wrapped = NewBreakerTranslator(wrapped, string(cfg.Engine), cfg.Breaker, cfg.Logger)
	}

	var policy LanguagePolicy
	switch cfg.Engine {
	case EngineLibreTranslate:
		policy = NewHostedPolicy(ctx, wrapped, cfg.Logger)
	case EngineIndicTrans:
		policy = RemapPolicy{}
	}

	return NewFallbackProvider(wrapped, policy, cfg.Engine, cfg.Logger), nil
}

// ParseEngineType parses a string into an EngineType.
// Returns an error if the string is not a valid engine type.
func ParseEngineType(s string) (EngineType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "libretranslate", "hosted":
		return EngineLibreTranslate, nil
	case "indictrans", "model":
		return EngineIndicTrans, nil
	default:
		return "", fmt.Errorf("unknown engine type: %s (supported: libretranslate, indictrans)", s)
	}
}
