package detect

import (
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"
	"github.com/sirupsen/logrus"
)

// LinguaDetector detects languages with lingua-go's statistical models.
type LinguaDetector struct {
	detector lingua.LanguageDetector
	logger   *logrus.Logger
}

// NewLinguaDetector builds a detector over opts.Languages, or over every
// language lingua knows when the list is empty. Without opts.Preload the
// models load lazily on the first Detect call that needs them.
func NewLinguaDetector(opts Options, logger *logrus.Logger) (*LinguaDetector, error) {
	if logger == nil {
		logger = logrus.New()
	}

	var builder lingua.LanguageDetectorBuilder
	if len(opts.Languages) == 0 {
		builder = lingua.NewLanguageDetectorBuilder().FromAllLanguages()
	} else {
		languages, err := linguaLanguages(opts.Languages)
		if err != nil {
			return nil, err
		}
		builder = lingua.NewLanguageDetectorBuilder().FromLanguages(languages...)
	}
	if opts.Preload {
		builder = builder.WithPreloadedLanguageModels()
	}

	logger.WithFields(logrus.Fields{
		"languages": len(opts.Languages),
		"preload":   opts.Preload,
	}).Debug("Building lingua detector")

	return &LinguaDetector{
		detector: builder.Build(),
		logger:   logger,
	}, nil
}

// linguaLanguages resolves ISO 639-1 codes to lingua languages. lingua
// needs at least two languages to choose between.
func linguaLanguages(codes []string) ([]lingua.Language, error) {
	byCode := make(map[string]lingua.Language)
	for _, language := range lingua.AllLanguages() {
		byCode[strings.ToLower(language.IsoCode639_1().String())] = language
	}

	seen := make(map[lingua.Language]bool, len(codes))
	languages := make([]lingua.Language, 0, len(codes))
	for _, code := range codes {
		language, ok := byCode[strings.ToLower(strings.TrimSpace(code))]
		if !ok {
			return nil, fmt.Errorf("lingua has no model for language %q", code)
		}
		if !seen[language] {
			seen[language] = true
			languages = append(languages, language)
		}
	}
	if len(languages) < 2 {
		return nil, fmt.Errorf("lingua needs at least two languages, got %d", len(languages))
	}
	return languages, nil
}

// Detect returns the ISO 639-1 code of text, or DefaultLanguage.
func (d *LinguaDetector) Detect(text string) string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return DefaultLanguage
	}

	language, exists := d.detector.DetectLanguageOf(clean)
	if !exists {
		d.logger.WithFields(logrus.Fields{
			"text_length": len(clean),
		}).Debug("Language detection inconclusive, using default")
		return DefaultLanguage
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if code == "" {
		return DefaultLanguage
	}
	return code
}
