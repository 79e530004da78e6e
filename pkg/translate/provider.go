package translate

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/dasmlab/babelgate/pkg/langmap"
)

// English is the pivot language in detector space.
const English = "en"

// LanguagePolicy decides which code a backend receives for a detector code.
type LanguagePolicy interface {
	Resolve(code string) string
}

// HostedPolicy validates codes against the set of languages the hosted
// service advertised at start-up. Unsupported codes become English.
type HostedPolicy struct {
	supported map[string]struct{}
}

// NewHostedPolicy fetches the supported-language set once. If the fetch
// fails, validation is disabled and every code passes through.
func NewHostedPolicy(ctx context.Context, backend Translator, logger *logrus.Logger) *HostedPolicy {
	if logger == nil {
		logger = logrus.New()
	}

	codes, err := backend.SupportedLanguages(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to fetch supported languages, language validation disabled")
		return &HostedPolicy{}
	}

	logger.WithFields(logrus.Fields{
		"count": len(codes),
	}).Info("Loaded supported translation languages")
	return NewHostedPolicyFromCodes(codes)
}

// NewHostedPolicyFromCodes builds a policy from a fixed code list.
// Qualified codes count for their base language: "pt-BR" admits "pt".
func NewHostedPolicyFromCodes(codes []string) *HostedPolicy {
	supported := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		supported[BaseCode(code)] = struct{}{}
	}
	return &HostedPolicy{supported: supported}
}

// Resolve returns code if its base language is supported, otherwise English.
func (p *HostedPolicy) Resolve(code string) string {
	if p.supported == nil {
		return code
	}
	if _, ok := p.supported[BaseCode(code)]; ok {
		return code
	}
	return English
}

// Supports reports whether validation accepts code.
func (p *HostedPolicy) Supports(code string) bool {
	return p.Resolve(code) == code
}

// RemapPolicy maps detector codes to service locale tags through the
// language table. Codes absent from the table pass through unchanged.
type RemapPolicy struct{}

// Resolve returns the locale tag for code ("hi" -> "hin_Deva").
func (RemapPolicy) Resolve(code string) string {
	return langmap.ToServiceCode(code)
}

// FallbackProvider is the Provider used by the pipeline. Backend failures
// are logged and answered with the original text.
type FallbackProvider struct {
	backend Translator
	policy  LanguagePolicy
	engine  EngineType
	metrics *MetricsCollector
	logger  *logrus.Logger
}

// NewFallbackProvider wires a backend and a language policy. A nil policy
// passes codes through untouched.
func NewFallbackProvider(backend Translator, policy LanguagePolicy, engine EngineType, logger *logrus.Logger) *FallbackProvider {
	if logger == nil {
		logger = logrus.New()
	}
	return &FallbackProvider{
		backend: backend,
		policy:  policy,
		engine:  engine,
		metrics: NewMetricsCollector(string(engine)),
		logger:  logger,
	}
}

// Resolve maps a detector code into the backend's code space. It is
// idempotent: resolving an already-resolved code returns it unchanged.
func (p *FallbackProvider) Resolve(code string) string {
	if p.policy == nil {
		return code
	}
	return p.policy.Resolve(code)
}

// Translate translates text, skipping the call when source and target
// resolve to the same language and returning text on any failure.
func (p *FallbackProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) string {
	src := p.Resolve(sourceLang)
	tgt := p.Resolve(targetLang)

	if strings.TrimSpace(text) == "" || src == tgt {
		p.metrics.RecordSkipped()
		return text
	}

	translated, err := p.backend.Translate(ctx, text, src, tgt)
	if err != nil {
		reason := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			reason = "breaker_open"
		} else if ctx.Err() != nil {
			reason = "cancelled"
		}
		p.metrics.RecordFallback(reason)
		p.logger.WithError(err).WithFields(logrus.Fields{
			"engine":      p.engine,
			"source_lang": src,
			"target_lang": tgt,
			"reason":      reason,
		}).Error("Translation failed, returning original text")
		return text
	}

	if strings.TrimSpace(translated) == "" {
		p.metrics.RecordFallback("empty")
		p.logger.WithFields(logrus.Fields{
			"engine":      p.engine,
			"source_lang": src,
			"target_lang": tgt,
		}).Warn("Translation returned empty text, returning original text")
		return text
	}

	return translated
}

// CheckHealth reports the backend's health.
func (p *FallbackProvider) CheckHealth(ctx context.Context) error {
	return p.backend.CheckHealth(ctx)
}
