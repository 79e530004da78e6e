// Package detect guesses the natural language of a piece of text.
// Detectors are deterministic: the same input always yields the same code,
// since downstream translation targets depend on it.
package detect

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultLanguage is returned whenever detection cannot produce a confident
// answer (empty input, very short input, mixed scripts).
const DefaultLanguage = "en"

// Detector maps raw text to a lower-case ISO 639-1 language code.
// Implementations never fail; they return DefaultLanguage instead.
type Detector interface {
	Detect(text string) string
}

// EngineType names a detection engine.
type EngineType string

const (
	// EngineLingua uses github.com/pemistahl/lingua-go.
	EngineLingua EngineType = "lingua"
	// EngineWhatlang uses github.com/abadojack/whatlanggo.
	EngineWhatlang EngineType = "whatlang"
)

// ParseEngineType parses a string into an EngineType.
func ParseEngineType(s string) (EngineType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lingua":
		return EngineLingua, nil
	case "whatlang", "whatlanggo":
		return EngineWhatlang, nil
	default:
		return "", fmt.Errorf("unknown detector engine: %s (supported: lingua, whatlang)", s)
	}
}

// Options tunes detector construction.
type Options struct {
	// Languages restricts lingua to these ISO 639-1 codes. Empty means
	// every language lingua knows.
	Languages []string
	// Preload loads lingua's models up front instead of on first use.
	Preload bool
}

// New creates a Detector for the given engine. whatlang ignores opts.
func New(engine EngineType, opts Options, logger *logrus.Logger) (Detector, error) {
	if logger == nil {
		logger = logrus.New()
	}

	logger.WithFields(logrus.Fields{
		"engine":  engine,
		"preload": opts.Preload,
	}).Info("Creating language detector")

	switch engine {
	case EngineLingua:
		return NewLinguaDetector(opts, logger)
	case EngineWhatlang:
		return NewWhatlangDetector(logger), nil
	default:
		return nil, fmt.Errorf("unknown detector engine: %s", engine)
	}
}
