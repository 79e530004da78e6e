package translate

import (
	"context"
)

// Translator defines the interface for machine translation backends.
// This abstraction allows us to switch between a hosted translation service
// (LibreTranslate) and a model-serving endpoint (IndicTrans) without changing
// the pipeline.
type Translator interface {
	// Translate translates text from source language to target language.
	// Codes are passed through as given; the backend decides what it accepts.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)

	// CheckHealth verifies that the translation backend is ready and operational.
	CheckHealth(ctx context.Context) error

	// SupportedLanguages returns the language codes accepted by this backend.
	SupportedLanguages(ctx context.Context) ([]string, error)
}

// Provider is the pipeline-facing side of translation. Unlike Translator it
// never fails: on any backend error the input text is returned unchanged.
type Provider interface {
	// Resolve maps a detector code into the code space the backend uses.
	Resolve(code string) string

	// Translate returns text translated from sourceLang to targetLang, or
	// text itself if translation is skipped or fails.
	Translate(ctx context.Context, text, sourceLang, targetLang string) string
}
