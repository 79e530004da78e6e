package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	// DefaultGeminiURL is the public Generative Language API host.
	DefaultGeminiURL = "https://generativelanguage.googleapis.com"
	// DefaultGeminiModel is used when no model is configured.
	DefaultGeminiModel = "gemini-2.0-flash"

	replyPath = "candidates.0.content.parts.0.text"
)

// GeminiClient calls generateContent over plain REST, authenticating with
// the API key in the query string.
type GeminiClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewGeminiClient creates a REST client for the configured model.
func NewGeminiClient(cfg Config) *GeminiClient {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultGeminiURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}

	return &GeminiClient{
		endpoint: strings.TrimRight(base, "/") + "/v1beta/models/" + model + ":generateContent",
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

// Generate sends prompt as the only content of a single-turn request.
// One attempt, no retries.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) string {
	start := time.Now()

	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(&payload); err != nil {
		observe(EngineGemini, statusTransportError, start)
		return FormatError(0, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?"+url.Values{"key": {c.apiKey}}.Encode(), buf)
	if err != nil {
		observe(EngineGemini, statusTransportError, start)
		return FormatError(0, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the API key; log the endpoint only.
		c.logger.WithFields(logrus.Fields{
			"endpoint": c.endpoint,
		}).WithError(redact(err, c.apiKey)).Error("Generation request failed")
		observe(EngineGemini, statusTransportError, start)
		return FormatError(0, redact(err, c.apiKey).Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observe(EngineGemini, statusTransportError, start)
		return FormatError(resp.StatusCode, err.Error())
	}

	c.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Generation request completed")

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
		}).Warn("Generation request returned non-OK status")
		observe(EngineGemini, statusHTTPError, start)
		return FormatError(resp.StatusCode, string(body))
	}

	reply := gjson.GetBytes(body, replyPath)
	if !gjson.ValidBytes(body) || reply.Type != gjson.String {
		c.logger.Warn("Generation response missing reply text")
		observe(EngineGemini, statusInvalidFormat, start)
		return InvalidResponseFormat
	}

	observe(EngineGemini, statusOK, start)
	return reply.String()
}

type redactedError struct{ msg string }

func (e redactedError) Error() string { return e.msg }

// redact strips the API key from transport errors, which embed the URL.
func redact(err error, key string) error {
	if key == "" {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), url.QueryEscape(key), "REDACTED")}
}
