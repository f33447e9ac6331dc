package llm

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// serverProvider talks to a directly reachable local inference server over its
// native chat endpoint. No auth is involved.
type serverProvider struct {
	cfg    ConfigSource
	logger *zap.Logger
	client *http.Client
	retry  retryPolicy
}

func newServerProvider(cfg ConfigSource, logger *zap.Logger) *serverProvider {
	return &serverProvider{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: chatTimeout},
		retry:  defaultRetry,
	}
}

func (p *serverProvider) Identity() Identity { return LocalServer }

func (p *serverProvider) Chat(ctx context.Context, system, user string) (string, error) {
	cfg := p.cfg.ProviderConfig(LocalServer)
	if cfg.BaseURL == "" {
		return "", &ConfigError{
			Provider: LocalServer,
			Field:    "base URL",
			Hint:     "set LOCAL_SERVER_BASE_URL, e.g. http://localhost:11434",
		}
	}

	payload := struct {
		Model    string              `json:"model"`
		Messages []openAIChatMessage `json:"messages"`
		Stream   bool                `json:"stream"`
	}{
		Model: cfg.Model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
	}
	url := normalizeBase(cfg.BaseURL) + "/api/chat"

	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	err := p.retry.do(ctx, p.logger, LocalServer, func() error {
		resp.Message.Content = ""
		return postJSON(ctx, p.client, url, nil, payload, &resp)
	})
	if err != nil {
		return "", err
	}

	// An absent message yields an empty string rather than an error.
	return resp.Message.Content, nil
}
