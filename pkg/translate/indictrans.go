package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/dasmlab/babelgate/pkg/langmap"
)

// DefaultIndicTransURL is the default base URL for the IndicTrans endpoint.
const DefaultIndicTransURL = "http://127.0.0.1:7860"

// IndicTransClient implements the Translator interface against an
// IndicTrans model served behind a Gradio-style predict API:
//
//	POST /api/predict  {"data": [text, src_tag, tgt_tag]}  ->  {"data": [translation]}
//
// Codes are forwarded as given. There is no local validation; the endpoint
// is trusted to reject pairs it cannot serve.
type IndicTransClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewIndicTransClient creates a new IndicTrans client.
func NewIndicTransClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *IndicTransClient {
	if baseURL == "" {
		baseURL = DefaultIndicTransURL
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &IndicTransClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type predictRequest struct {
	Data []string `json:"data"`
}

// Translate translates text between two locale tags, e.g. hin_Deva -> eng_Latn.
func (c *IndicTransClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with IndicTrans")

	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(predictRequest{Data: []string{text, sourceLang, targetLang}}); err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := c.baseURL + "/api/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	duration := time.Since(startTime)
	c.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration_ms": duration.Milliseconds(),
	}).Debug("Prediction request completed")

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("decode response: invalid JSON")
	}
	result := gjson.GetBytes(body, "data.0")
	if result.Type != gjson.String {
		if msg := gjson.GetBytes(body, "error"); msg.Exists() {
			return "", fmt.Errorf("prediction failed: %s", msg.String())
		}
		return "", fmt.Errorf("decode response: missing data[0]")
	}

	c.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"duration_ms": duration.Milliseconds(),
	}).Info("Translation completed successfully")

	return result.String(), nil
}

// CheckHealth verifies that the endpoint answers at all. Gradio apps expose
// no dedicated health route, so any non-5xx reply from the root counts.
func (c *IndicTransClient) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// SupportedLanguages returns the locale tags of the built-in language table.
func (c *IndicTransClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	codes := langmap.Languages()
	tags := make([]string, 0, len(codes))
	for _, code := range codes {
		tags = append(tags, langmap.ToServiceCode(code))
	}
	return tags, nil
}
