package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"HackNewsBot/internal/config"
	"HackNewsBot/internal/ports"
)

const systemPrompt = "You translate news headlines from %s to %s. " +
	"Reply with the translated headline only, without quotes or commentary."

// OpenAIClient implements ports.TranslationService backed by OpenAI-compatible APIs.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

var _ ports.TranslationService = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, fmt.Errorf("openai translator misconfigured")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Translate asks the model for a single-line translation.
func (c *OpenAIClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPrompt, sourceLang, targetLang)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}
	return out, nil
}
