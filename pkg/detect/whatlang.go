package detect

import (
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
	"github.com/sirupsen/logrus"
)

// whatlangOptions drops the Bihari dialects whatlanggo confuses with Hindi.
// The gateway cannot route them and they mark clear Hindi as unreliable.
var whatlangOptions = whatlanggo.Options{
	Blacklist: map[whatlanggo.Lang]bool{
		whatlanggo.Bho: true,
	},
}

// WhatlangDetector is a trigram detector; it is faster than lingua but less
// accurate on short inputs.
type WhatlangDetector struct {
	logger *logrus.Logger
}

// NewWhatlangDetector creates a whatlanggo-backed detector.
func NewWhatlangDetector(logger *logrus.Logger) *WhatlangDetector {
	if logger == nil {
		logger = logrus.New()
	}
	return &WhatlangDetector{logger: logger}
}

// Detect returns the ISO 639-1 code of text. A result marked unreliable is
// still used when the text is in a non-Latin script, since the script
// already rules English out. Otherwise it returns DefaultLanguage.
func (d *WhatlangDetector) Detect(text string) string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return DefaultLanguage
	}

	info := whatlanggo.DetectWithOptions(clean, whatlangOptions)
	if !info.IsReliable() && latinOnly(clean) {
		d.logger.WithFields(logrus.Fields{
			"text_length": len(clean),
			"confidence":  info.Confidence,
		}).Debug("Language detection unreliable, using default")
		return DefaultLanguage
	}

	code := info.Lang.Iso6391()
	if code == "" {
		// e.g. Maithili, which langmap keys by its ISO 639-3 code
		code = info.Lang.Iso6393()
	}
	if code == "" {
		return DefaultLanguage
	}
	return strings.ToLower(code)
}

// latinOnly reports whether every letter in text is Latin.
func latinOnly(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}
