package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"HackNewsBot/internal/config"
	"HackNewsBot/internal/ports"
)

const (
	defaultAPIURL = "https://api.telegram.org"
	// Telegram rejects longer messages.
	maxMessageRunes = 4096
)

// Notifier sends publish digests to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier returns nil when the bot token or chat id is missing, so callers
// can leave notifications disabled.
func NewNotifier(cfg config.TelegramConfig) *Notifier {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil
	}
	return &Notifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		apiURL:   defaultAPIURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// WithAPIURL points the notifier at another Bot API server.
func (n *Notifier) WithAPIURL(apiURL string) *Notifier {
	n.apiURL = strings.TrimRight(apiURL, "/")
	return n
}

// PublishDigest posts a plain-text message to Telegram.
func (n *Notifier) PublishDigest(ctx context.Context, digest string) error {
	if n == nil || n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", truncate(digest, maxMessageRunes))
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram error: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
