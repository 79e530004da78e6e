package generate

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GenAIClient generates replies through the official genai SDK.
type GenAIClient struct {
	client  *genai.Client
	initErr error
	model   string
	logger  *logrus.Logger
}

// NewGenAIClient creates the SDK client. Construction errors (for instance a
// missing key) are kept and reported as reply text on every call.
func NewGenAIClient(ctx context.Context, cfg Config) *GenAIClient {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logger.WithError(err).Warn("Failed to create genai client")
	}

	return &GenAIClient{
		client:  client,
		initErr: err,
		model:   model,
		logger:  logger,
	}
}

// Generate sends prompt as a single user turn.
func (c *GenAIClient) Generate(ctx context.Context, prompt string) string {
	start := time.Now()
	if c.initErr != nil {
		observe(EngineGenAI, statusTransportError, start)
		return FormatError(0, c.initErr.Error())
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			observe(EngineGenAI, statusHTTPError, start)
			return FormatError(apiErr.Code, apiErr.Message)
		}
		c.logger.WithError(err).Error("Generation request failed")
		observe(EngineGenAI, statusTransportError, start)
		return FormatError(0, err.Error())
	}

	text := ""
	if result != nil {
		text = result.Text()
	}
	if text == "" {
		observe(EngineGenAI, statusInvalidFormat, start)
		return InvalidResponseFormat
	}

	observe(EngineGenAI, statusOK, start)
	return text
}
