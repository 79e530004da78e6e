package detect

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestParseEngineType(t *testing.T) {
	tests := []struct {
		in      string
		want    EngineType
		wantErr bool
	}{
		{"", EngineLingua, false},
		{"lingua", EngineLingua, false},
		{"Lingua", EngineLingua, false},
		{"whatlang", EngineWhatlang, false},
		{"whatlanggo", EngineWhatlang, false},
		{"langdetect", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEngineType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEngineType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseEngineType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_UnknownEngine(t *testing.T) {
	if _, err := New(EngineType("nope"), Options{}, quietLogger()); err == nil {
		t.Error("expected error for unknown engine")
	}
}

// testLanguages keeps lingua's model loading small in tests.
var testLanguages = []string{"en", "hi", "mr", "ta", "te", "fr", "de"}

func detectors(t *testing.T) map[string]Detector {
	t.Helper()
	logger := quietLogger()
	lingua, err := NewLinguaDetector(Options{Languages: testLanguages}, logger)
	if err != nil {
		t.Fatalf("NewLinguaDetector() error = %v", err)
	}
	return map[string]Detector{
		"lingua":   lingua,
		"whatlang": NewWhatlangDetector(logger),
	}
}

func TestDetect_EmptyInputDefaults(t *testing.T) {
	for name, d := range detectors(t) {
		t.Run(name, func(t *testing.T) {
			for _, in := range []string{"", "   ", "\n\t"} {
				if got := d.Detect(in); got != DefaultLanguage {
					t.Errorf("Detect(%q) = %q, want %q", in, got, DefaultLanguage)
				}
			}
		})
	}
}

func TestDetect_Deterministic(t *testing.T) {
	inputs := []string{
		"Hello, how are you doing today?",
		"मैं आज बाज़ार जा रहा हूँ और शाम को वापस आऊँगा।",
		"ok",
		"12345",
	}

	for name, d := range detectors(t) {
		t.Run(name, func(t *testing.T) {
			for _, in := range inputs {
				first := d.Detect(in)
				if first == "" {
					t.Errorf("Detect(%q) returned empty code", in)
				}
				for i := 0; i < 5; i++ {
					if got := d.Detect(in); got != first {
						t.Errorf("Detect(%q) not deterministic: %q then %q", in, first, got)
					}
				}
			}
		})
	}
}

func TestDetect_KnownLanguages(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"The weather is lovely this morning and I would like to go for a walk.", "en"},
		{"मैं आज बाज़ार जा रहा हूँ और शाम को वापस आऊँगा।", "hi"},
		{"நான் இன்று சந்தைக்குச் சென்று மாலையில் திரும்புவேன்.", "ta"},
	}

	for name, d := range detectors(t) {
		t.Run(name, func(t *testing.T) {
			for _, tt := range tests {
				if got := d.Detect(tt.text); got != tt.want {
					t.Errorf("Detect(%q) = %q, want %q", tt.text, got, tt.want)
				}
			}
		})
	}
}

func TestWhatlang_HindiNotMistakenForBhojpuri(t *testing.T) {
	d := NewWhatlangDetector(quietLogger())
	for _, text := range []string{
		"नमस्ते, आप कैसे हैं?",
		"मैं आज बाज़ार जा रहा हूँ और शाम को वापस आऊँगा।",
	} {
		if got := d.Detect(text); got != "hi" {
			t.Errorf("Detect(%q) = %q, want hi", text, got)
		}
	}
}

func TestWhatlang_UnreliableLatinDefaults(t *testing.T) {
	d := NewWhatlangDetector(quietLogger())
	if got := d.Detect("ok"); got != DefaultLanguage {
		t.Errorf("Detect(ok) = %q, want %q", got, DefaultLanguage)
	}
}

func TestLatinOnly(t *testing.T) {
	tests := map[string]bool{
		"Hello, world 123": true,
		"Ça va très bien":  true,
		"नमस्ते":           false,
		"hello नमस्ते":     false,
		"12345 !?":         true,
	}
	for in, want := range tests {
		if got := latinOnly(in); got != want {
			t.Errorf("latinOnly(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLinguaDetector_Languages(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"subset", Options{Languages: []string{"en", "hi"}}, false},
		{"case and space", Options{Languages: []string{" EN", "Hi "}}, false},
		{"preloaded", Options{Languages: []string{"en", "ta"}, Preload: true}, false},
		{"unknown code", Options{Languages: []string{"en", "xx"}}, true},
		{"single language", Options{Languages: []string{"en", "en"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLinguaDetector(tt.opts, quietLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLinguaDetector(%+v) error = %v, wantErr %v", tt.opts, err, tt.wantErr)
			}
		})
	}
}

func TestNewLinguaDetector_PreloadedDetects(t *testing.T) {
	d, err := New(EngineLingua, Options{Languages: []string{"en", "ta"}, Preload: true}, quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := d.Detect("நான் இன்று சந்தைக்குச் சென்று மாலையில் திரும்புவேன்."); got != "ta" {
		t.Errorf("Detect() = %q, want ta", got)
	}
}
