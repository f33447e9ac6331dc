package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// googleProvider talks to the Google generate-content API through the genai
// client. The API has no separate system channel here; the system and user
// instructions are concatenated into one user-role prompt.
type googleProvider struct {
	cfg    ConfigSource
	logger *zap.Logger
	client *http.Client
	retry  retryPolicy
}

func newGoogleProvider(cfg ConfigSource, logger *zap.Logger) *googleProvider {
	return &googleProvider{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: chatTimeout},
		retry:  defaultRetry,
	}
}

func (p *googleProvider) Identity() Identity { return GoogleCompatible }

func (p *googleProvider) Chat(ctx context.Context, system, user string) (string, error) {
	cfg := p.cfg.ProviderConfig(GoogleCompatible)
	if cfg.APIKey == "" {
		return "", &ConfigError{
			Provider: GoogleCompatible,
			Field:    "API key",
			Hint:     "set GEMINI_API_KEY or configure the key in settings",
		}
	}

	prompt := system + "\n\n" + user

	var resp *genai.GenerateContentResponse
	err := p.retry.do(ctx, p.logger, GoogleCompatible, func() error {
		client, cerr := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:     cfg.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: p.client,
		})
		if cerr != nil {
			return fmt.Errorf("create genai client: %w", cerr)
		}

		resp, cerr = client.Models.GenerateContent(ctx, cfg.Model, genai.Text(prompt), nil)
		return cerr
	})
	if err != nil {
		return "", err
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", nil
	}

	var out strings.Builder
	candidate := resp.Candidates[0]
	if candidate != nil && candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil {
				out.WriteString(part.Text)
			}
		}
	}
	return out.String(), nil
}
