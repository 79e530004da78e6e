package generate

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAIClient generates replies with an OpenAI-compatible chat API.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *logrus.Logger
}

// NewOpenAIClient creates a chat completion client.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: logger,
	}
}

// Generate sends prompt as a single user message.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) string {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			observe(EngineOpenAI, statusHTTPError, start)
			return FormatError(apiErr.HTTPStatusCode, apiErr.Message)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			observe(EngineOpenAI, statusHTTPError, start)
			return FormatError(reqErr.HTTPStatusCode, reqErr.Error())
		}
		c.logger.WithError(err).Error("Generation request failed")
		observe(EngineOpenAI, statusTransportError, start)
		return FormatError(0, err.Error())
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		observe(EngineOpenAI, statusInvalidFormat, start)
		return InvalidResponseFormat
	}

	observe(EngineOpenAI, statusOK, start)
	return resp.Choices[0].Message.Content
}
