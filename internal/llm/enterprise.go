package llm

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

const enterpriseGenerationVersion = "2024-05-01"

// enterpriseProvider talks to the enterprise text-generation API. The system
// and user instructions are concatenated into one input field and decoding
// parameters are fixed.
type enterpriseProvider struct {
	cfg    ConfigSource
	logger *zap.Logger
	client *http.Client
	retry  retryPolicy
}

func newEnterpriseProvider(cfg ConfigSource, logger *zap.Logger) *enterpriseProvider {
	return &enterpriseProvider{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: chatTimeout},
		retry:  defaultRetry,
	}
}

func (p *enterpriseProvider) Identity() Identity { return EnterpriseCompatible }

func (p *enterpriseProvider) Chat(ctx context.Context, system, user string) (string, error) {
	cfg := p.cfg.ProviderConfig(EnterpriseCompatible)
	if cfg.APIKey == "" {
		return "", &ConfigError{
			Provider: EnterpriseCompatible,
			Field:    "API key",
			Hint:     "set WATSONX_API_KEY or configure the key in settings",
		}
	}
	if cfg.BaseURL == "" {
		return "", &ConfigError{
			Provider: EnterpriseCompatible,
			Field:    "base URL",
			Hint:     "set WATSONX_URL to your regional endpoint",
		}
	}
	if cfg.ProjectID == "" {
		return "", &ConfigError{
			Provider: EnterpriseCompatible,
			Field:    "project id",
			Hint:     "set WATSONX_PROJECT_ID or configure it in settings",
		}
	}

	payload := struct {
		ModelID    string `json:"model_id"`
		ProjectID  string `json:"project_id"`
		Input      string `json:"input"`
		Parameters struct {
			DecodingMethod string `json:"decoding_method"`
			MaxNewTokens   int    `json:"max_new_tokens"`
		} `json:"parameters"`
	}{
		ModelID:   cfg.Model,
		ProjectID: cfg.ProjectID,
		Input:     system + "\n\n" + user,
	}
	payload.Parameters.DecodingMethod = "greedy"
	payload.Parameters.MaxNewTokens = 800

	url := normalizeBase(cfg.BaseURL) + "/ml/v1/text/generation?version=" + enterpriseGenerationVersion
	headers := map[string]string{"Authorization": "Bearer " + cfg.APIKey}

	var resp struct {
		Results []struct {
			GeneratedText string `json:"generated_text"`
		} `json:"results"`
	}
	err := p.retry.do(ctx, p.logger, EnterpriseCompatible, func() error {
		resp.Results = nil
		return postJSON(ctx, p.client, url, headers, payload, &resp)
	})
	if err != nil {
		return "", err
	}

	if len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].GeneratedText, nil
}
