package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// openAIProvider talks to an OpenAI-style chat completion API through the
// go-openai client. The client is rebuilt per call so a key or base URL
// updated at runtime applies immediately.
type openAIProvider struct {
	cfg    ConfigSource
	logger *zap.Logger
	client *http.Client
	retry  retryPolicy
}

func newOpenAIProvider(cfg ConfigSource, logger *zap.Logger) *openAIProvider {
	return &openAIProvider{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: chatTimeout},
		retry:  defaultRetry,
	}
}

func (p *openAIProvider) Identity() Identity { return OpenAICompatible }

func (p *openAIProvider) Chat(ctx context.Context, system, user string) (string, error) {
	cfg := p.cfg.ProviderConfig(OpenAICompatible)
	if cfg.APIKey == "" {
		return "", &ConfigError{
			Provider: OpenAICompatible,
			Field:    "API key",
			Hint:     "set OPENAI_API_KEY or configure the key in settings",
		}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.HTTPClient = p.client
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = normalizeBase(cfg.BaseURL) + "/v1"
	}
	client := openai.NewClientWithConfig(clientCfg)

	req := openai.ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	var resp openai.ChatCompletionResponse
	err := p.retry.do(ctx, p.logger, OpenAICompatible, func() error {
		var callErr error
		resp, callErr = client.CreateChatCompletion(ctx, req)
		return callErr
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai-compatible backend returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
