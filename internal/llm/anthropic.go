package llm

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 1024
)

// anthropicProvider talks to an Anthropic-style messages API. The system
// instruction travels in its own field next to a single user message.
type anthropicProvider struct {
	cfg    ConfigSource
	logger *zap.Logger
	client *http.Client
	retry  retryPolicy
}

func newAnthropicProvider(cfg ConfigSource, logger *zap.Logger) *anthropicProvider {
	return &anthropicProvider{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: chatTimeout},
		retry:  defaultRetry,
	}
}

func (p *anthropicProvider) Identity() Identity { return AnthropicCompatible }

func (p *anthropicProvider) Chat(ctx context.Context, system, user string) (string, error) {
	cfg := p.cfg.ProviderConfig(AnthropicCompatible)
	if cfg.APIKey == "" {
		return "", &ConfigError{
			Provider: AnthropicCompatible,
			Field:    "API key",
			Hint:     "set ANTHROPIC_API_KEY or configure the key in settings",
		}
	}

	base := cfg.BaseURL
	if base == "" {
		base = anthropicDefaultBaseURL
	}
	url := normalizeBase(base) + "/v1/messages"

	payload := struct {
		Model     string              `json:"model"`
		MaxTokens int                 `json:"max_tokens"`
		System    string              `json:"system"`
		Messages  []openAIChatMessage `json:"messages"`
	}{
		Model:     cfg.Model,
		MaxTokens: anthropicMaxTokens,
		System:    system,
		Messages:  []openAIChatMessage{{Role: "user", Content: user}},
	}
	headers := map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": anthropicVersion,
	}

	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	err := p.retry.do(ctx, p.logger, AnthropicCompatible, func() error {
		resp.Content = nil
		return postJSON(ctx, p.client, url, headers, payload, &resp)
	})
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String(), nil
}
