package llm

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// tunnelProvider talks to a local model exposed through a secure tunnel. The
// tunnel speaks the OpenAI chat wire format and accepts its key both as a
// custom header and as a bearer token, so both are always sent.
type tunnelProvider struct {
	cfg    ConfigSource
	logger *zap.Logger
	client *http.Client
	retry  retryPolicy
}

func newTunnelProvider(cfg ConfigSource, logger *zap.Logger) *tunnelProvider {
	return &tunnelProvider{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: tunnelChatTimeout},
		retry:  defaultRetry,
	}
}

func (p *tunnelProvider) Identity() Identity { return LocalTunnel }

func (p *tunnelProvider) Chat(ctx context.Context, system, user string) (string, error) {
	cfg := p.cfg.ProviderConfig(LocalTunnel)
	if cfg.BaseURL == "" {
		return "", &ConfigError{
			Provider: LocalTunnel,
			Field:    "base URL",
			Hint:     "set LOCAL_TUNNEL_BASE_URL to your tunnel endpoint, e.g. http://localhost:11435",
		}
	}
	if cfg.APIKey == "" {
		return "", &ConfigError{
			Provider: LocalTunnel,
			Field:    "API key",
			Hint:     "set LOCAL_TUNNEL_API_KEY to the key printed when the tunnel started",
		}
	}

	payload := openAIChatRequest{
		Model: cfg.Model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
	}
	headers := map[string]string{
		"X-API-Key":     cfg.APIKey,
		"Authorization": "Bearer " + cfg.APIKey,
	}
	url := normalizeBase(cfg.BaseURL) + "/v1/chat/completions"

	var resp openAIChatResponse
	err := p.retry.do(ctx, p.logger, LocalTunnel, func() error {
		resp = openAIChatResponse{}
		return postJSON(ctx, p.client, url, headers, payload, &resp)
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("local tunnel returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// openAIChatRequest is the OpenAI-style chat completion request shared by the
// tunnel backend. Stream is always serialized, even when false.
type openAIChatRequest struct {
	Model    string              `json:"model"`
	Messages []openAIChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
