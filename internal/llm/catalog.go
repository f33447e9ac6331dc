package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"
)

const (
	openAIDefaultBaseURL = "https://api.openai.com"

	enterpriseSpecsPath    = "/ml/v1/foundation_model_specs"
	enterpriseSpecsVersion = "2024-09-16"
	enterpriseSpecsFilters = "!function_embedding,!lifecycle_withdrawn"
)

// enterpriseRegionBaseURLs are the fixed regional endpoints the enterprise
// catalog probe unions model ids across.
var enterpriseRegionBaseURLs = []string{
	"https://us-south.ml.cloud.ibm.com",
	"https://eu-de.ml.cloud.ibm.com",
	"https://jp-tok.ml.cloud.ibm.com",
	"https://au-syd.ml.cloud.ibm.com",
}

// googleDefaultModels is the fixed candidate list for the google backend,
// which has no model discovery endpoint.
var googleDefaultModels = []string{
	"gemini-1.5-pro",
	"gemini-1.5-flash",
	"gemini-1.0-pro",
}

// Catalog probes each backend for its available model list. A probe doubles
// as a connectivity test: every failure is returned as a descriptive error
// value for callers to render softly, never to abort a multi-provider view.
type Catalog struct {
	cfg    ConfigSource
	logger *zap.Logger
	client *http.Client

	// overridable in tests
	regionBaseURLs []string
	now            func() time.Time
}

// NewCatalog constructs a catalog probing through short-timeout requests.
func NewCatalog(cfg ConfigSource, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		cfg:            cfg,
		logger:         logger,
		client:         &http.Client{Timeout: probeTimeout},
		regionBaseURLs: enterpriseRegionBaseURLs,
		now:            time.Now,
	}
}

// ListModels returns the sorted, deduplicated model ids for the identity. The
// returned error is informational; it is never an abort signal.
func (c *Catalog) ListModels(ctx context.Context, id Identity) ([]string, error) {
	switch id {
	case LocalTunnel:
		return c.listTagged(ctx, id, true)
	case LocalServer:
		return c.listTagged(ctx, id, false)
	case OpenAICompatible:
		cfg := c.cfg.ProviderConfig(id)
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s API key not configured", id)
		}
		base := cfg.BaseURL
		if base == "" {
			base = openAIDefaultBaseURL
		}
		return c.listIdentified(ctx, id, normalizeBase(base)+"/v1/models", map[string]string{
			"Authorization": "Bearer " + cfg.APIKey,
		})
	case AnthropicCompatible:
		cfg := c.cfg.ProviderConfig(id)
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s API key not configured", id)
		}
		base := cfg.BaseURL
		if base == "" {
			base = anthropicDefaultBaseURL
		}
		return c.listIdentified(ctx, id, normalizeBase(base)+"/v1/models", map[string]string{
			"x-api-key":         cfg.APIKey,
			"anthropic-version": anthropicVersion,
		})
	case GoogleCompatible:
		if c.cfg.ProviderConfig(id).APIKey == "" {
			return nil, fmt.Errorf("%s API key not configured", id)
		}
		models := make([]string, len(googleDefaultModels))
		copy(models, googleDefaultModels)
		return models, nil
	case EnterpriseCompatible:
		return c.listEnterprise(ctx)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", id)
	}
}

// listTagged reads a tags listing of the form {"models": [{"name": ...}]}.
func (c *Catalog) listTagged(ctx context.Context, id Identity, requireBase bool) ([]string, error) {
	cfg := c.cfg.ProviderConfig(id)
	if requireBase && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s base URL not configured", id)
	}

	var resp struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	url := normalizeBase(cfg.BaseURL) + "/api/tags"
	if err := getJSON(ctx, c.client, url, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing %s models: %w", id, err)
	}

	seen := map[string]struct{}{}
	for _, m := range resp.Models {
		if m.Name != "" {
			seen[m.Name] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

// listIdentified reads a models listing of the form {"data": [{"id": ...}]}.
func (c *Catalog) listIdentified(ctx context.Context, id Identity, url string, headers map[string]string) ([]string, error) {
	var resp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := getJSON(ctx, c.client, url, headers, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing %s models: %w", id, err)
	}

	seen := map[string]struct{}{}
	for _, m := range resp.Data {
		if m.ID != "" {
			seen[m.ID] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

type enterpriseModelSpec struct {
	ModelID   string `json:"model_id"`
	Lifecycle []struct {
		ID        string `json:"id"`
		StartDate string `json:"start_date"`
	} `json:"lifecycle"`
}

// listEnterprise unions model ids across all reachable regions, skipping
// models whose lifecycle shows a deprecation or withdrawal already in effect.
// Individual regional failures are non-fatal.
func (c *Catalog) listEnterprise(ctx context.Context) ([]string, error) {
	today := c.now().Format("2006-01-02")
	query := url.Values{
		"version": {enterpriseSpecsVersion},
		"filters": {enterpriseSpecsFilters},
	}

	seen := map[string]struct{}{}
	for _, base := range c.regionBaseURLs {
		var resp struct {
			Resources []enterpriseModelSpec `json:"resources"`
		}
		if err := getJSON(ctx, c.client, base+enterpriseSpecsPath, nil, query, &resp); err != nil {
			c.logger.Debug("enterprise region probe failed", zap.String("base_url", base), zap.Error(err))
			continue
		}
		for _, spec := range resp.Resources {
			if spec.ModelID == "" || isRetired(spec, today) {
				continue
			}
			seen[spec.ModelID] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("no %s models found", EnterpriseCompatible)
	}
	return sortedKeys(seen), nil
}

func isRetired(spec enterpriseModelSpec, today string) bool {
	for _, entry := range spec.Lifecycle {
		if (entry.ID == "deprecated" || entry.ID == "withdrawn") && entry.StartDate <= today {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
