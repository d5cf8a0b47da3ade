package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"HackNewsBot/internal/ports"
)

// GoogleClient calls the public translate_a/single web endpoint.
type GoogleClient struct {
	endpoint string
	http     *http.Client
}

var _ ports.TranslationService = (*GoogleClient)(nil)

// NewGoogleClient creates a reusable HTTP client.
func NewGoogleClient(endpoint string, timeout time.Duration) *GoogleClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GoogleClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// Translate returns the concatenated translated segments.
func (c *GoogleClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %s: %w", c.endpoint, err)
	}
	q := u.Query()
	q.Set("client", "gtx")
	q.Set("sl", sourceLang)
	q.Set("tl", targetLang)
	q.Set("dt", "t")
	q.Set("q", text)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("translate error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var raw []any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return joinSegments(raw)
}

// joinSegments reads [[["translated","source",...],...],...].
func joinSegments(raw []any) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty response")
	}
	segments, ok := raw[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected response shape")
	}

	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("no translated segments")
	}
	return out, nil
}
