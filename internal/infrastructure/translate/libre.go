package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"HackNewsBot/internal/config"
	"HackNewsBot/internal/ports"
)

// LibreClient talks to a LibreTranslate server.
type LibreClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.TranslationService = (*LibreClient)(nil)

// NewLibreClient creates a reusable HTTP client.
func NewLibreClient(cfg config.LibreTranslateConfig, timeout time.Duration) (*LibreClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("libretranslate url is not configured")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &LibreClient{
		endpoint: strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

// Translate posts text to /translate. LibreTranslate wants bare language
// codes, so region suffixes such as "zh-CN" are cut to "zh".
func (c *LibreClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	payload := map[string]any{
		"q":      text,
		"source": libreLang(sourceLang),
		"target": libreLang(targetLang),
		"format": "text",
	}
	if c.apiKey != "" {
		payload["api_key"] = c.apiKey
	}

	var resp struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := c.post(ctx, "/translate", payload, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.TranslatedText) == "" {
		return "", fmt.Errorf("libretranslate returned no text")
	}

	return strings.TrimSpace(resp.TranslatedText), nil
}

func (c *LibreClient) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("unexpected status %s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func libreLang(lang string) string {
	base, _, _ := strings.Cut(strings.TrimSpace(lang), "-")
	if base == "" {
		return "auto"
	}
	return strings.ToLower(base)
}
