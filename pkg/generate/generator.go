// Package generate sends English prompts to a generative-language API and
// returns the reply text.
//
// Generators never return errors. Remote failures come back as sentinel
// strings ("Error: <status>, <body>" or InvalidResponseFormat) that callers
// treat as ordinary reply text.
package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// InvalidResponseFormat is returned when a 200 response does not carry the
// expected reply text.
const InvalidResponseFormat = "Invalid response format from API."

// Generator produces a reply for a single-turn prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// FormatError renders a non-200 response as reply text.
func FormatError(status int, body string) string {
	return fmt.Sprintf("Error: %d, %s", status, body)
}

// EngineType names a generation backend.
type EngineType string

const (
	// EngineGemini calls the Gemini generateContent REST endpoint directly.
	EngineGemini EngineType = "gemini"
	// EngineGenAI uses the google.golang.org/genai SDK.
	EngineGenAI EngineType = "genai"
	// EngineOpenAI uses an OpenAI-compatible chat completion API.
	EngineOpenAI EngineType = "openai"
)

// Config holds configuration for creating a Generator.
type Config struct {
	Engine EngineType
	// BaseURL overrides the API host. Empty selects the engine default.
	BaseURL string
	// Model overrides the engine's default model.
	Model  string
	APIKey string
	// Timeout bounds each call. Zero keeps the transport default.
	Timeout time.Duration
	Logger  *logrus.Logger
}

// ParseEngineType parses a string into an EngineType.
func ParseEngineType(s string) (EngineType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gemini", "rest":
		return EngineGemini, nil
	case "genai", "gemini-sdk":
		return EngineGenAI, nil
	case "openai":
		return EngineOpenAI, nil
	default:
		return "", fmt.Errorf("unknown generation engine: %s (supported: gemini, genai, openai)", s)
	}
}

// NewGenerator creates a Generator for the configured engine. A missing API
// key is not an error here; it surfaces when the remote call is rejected.
func NewGenerator(ctx context.Context, cfg Config) (Generator, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	cfg.Logger.WithFields(logrus.Fields{
		"engine":  cfg.Engine,
		"model":   cfg.Model,
		"api_key": cfg.APIKey != "",
	}).Info("Creating generator instance")

	switch cfg.Engine {
	case EngineGemini:
		return NewGeminiClient(cfg), nil
	case EngineGenAI:
		return NewGenAIClient(ctx, cfg), nil
	case EngineOpenAI:
		return NewOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown generation engine: %s", cfg.Engine)
	}
}
