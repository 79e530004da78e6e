package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultLibreTranslateURL is the default base URL for LibreTranslate API.
// LibreTranslate usually listens on 5000, which the gateway already uses.
const DefaultLibreTranslateURL = "http://localhost:5001"

// LibreTranslateClient is the hosted engine. The detector speaks bare
// ISO 639-1 codes ("zh", "pt") while a LibreTranslate server may advertise
// script- or region-qualified ones ("zh-Hans", "pt-BR"). The client reports
// base codes and translates them back to the advertised form on the wire.
type LibreTranslateClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger

	mu sync.RWMutex
	// advertised maps a base code to the code the server expects.
	advertised map[string]string
}

// NewLibreTranslateClient creates a new LibreTranslate client.
// A zero timeout leaves the HTTP client without a deadline.
func NewLibreTranslateClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *LibreTranslateClient {
	if baseURL == "" {
		baseURL = DefaultLibreTranslateURL
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &LibreTranslateClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// languagesResponse is one entry of GET /languages.
type languagesResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// BaseCode strips script and region subtags and lower-cases the rest:
// "zh-Hans" and "zh_Hant" become "zh", "pt-BR" becomes "pt".
func BaseCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}

// wireCode returns the advertised form of a base code, or the code itself
// when the server's list has not been loaded or does not name it.
func (c *LibreTranslateClient) wireCode(code string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if advertised, ok := c.advertised[BaseCode(code)]; ok {
		return advertised
	}
	return code
}

// Translate translates text between two base codes.
func (c *LibreTranslateClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	source, target := c.wireCode(sourceLang), c.wireCode(targetLang)
	log := c.logger.WithFields(logrus.Fields{
		"source_lang": source,
		"target_lang": target,
	})
	log.WithFields(logrus.Fields{
		"text_length": len(text),
	}).Debug("Translating text with LibreTranslate")

	var out translateResponse
	started := time.Now()
	err := c.do(ctx, http.MethodPost, "/translate", translateRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: c.apiKey,
	}, &out)
	if err != nil {
		return "", err
	}

	log.WithFields(logrus.Fields{
		"duration_ms": time.Since(started).Milliseconds(),
	}).Debug("Translation completed")
	return out.TranslatedText, nil
}

// CheckHealth probes /languages, which every LibreTranslate release serves.
func (c *LibreTranslateClient) CheckHealth(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/languages", nil, nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// SupportedLanguages returns the base codes the server serves and records
// which advertised code each one stands for. When several variants share a
// base ("zh-Hans", "zh-Hant") the bare code wins if advertised, otherwise
// the first variant listed.
func (c *LibreTranslateClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	var languages []languagesResponse
	if err := c.do(ctx, http.MethodGet, "/languages", nil, &languages); err != nil {
		return nil, err
	}

	advertised := make(map[string]string, len(languages))
	codes := make([]string, 0, len(languages))
	for _, lang := range languages {
		base := BaseCode(lang.Code)
		if base == "" {
			continue
		}
		prev, seen := advertised[base]
		if !seen {
			codes = append(codes, base)
		}
		if !seen || (prev != base && strings.EqualFold(lang.Code, base)) {
			advertised[base] = lang.Code
		}
	}

	c.mu.Lock()
	c.advertised = advertised
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"advertised": len(languages),
		"base_codes": len(codes),
	}).Debug("Fetched supported languages")
	return codes, nil
}

// do sends an optional JSON body and decodes a JSON reply into out when
// out is non-nil. Non-200 replies become errors carrying the body.
func (c *LibreTranslateClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
