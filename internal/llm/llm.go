// Package llm routes chat requests to one of several interchangeable
// text-generation backends behind a single contract. Each backend is
// identified by a member of a closed identity set and implemented by one
// adapter that speaks its wire protocol.
package llm

import (
	"context"
	"sort"
)

// Identity names one of the supported text-generation backends.
type Identity string

const (
	// LocalTunnel is a local model reached through a secure tunnel that
	// speaks the OpenAI chat wire format with its own dual auth scheme.
	LocalTunnel Identity = "local_tunnel"
	// LocalServer is a directly reachable local inference server.
	LocalServer Identity = "local_server"
	// OpenAICompatible is an OpenAI-style cloud chat API.
	OpenAICompatible Identity = "openai_compatible"
	// AnthropicCompatible is an Anthropic-style messages API.
	AnthropicCompatible Identity = "anthropic_compatible"
	// GoogleCompatible is a Google-style generate-content API.
	GoogleCompatible Identity = "google_compatible"
	// EnterpriseCompatible is an enterprise text-generation API scoped to a
	// project id.
	EnterpriseCompatible Identity = "enterprise_compatible"
)

var identitySet = map[Identity]struct{}{
	LocalTunnel:          {},
	LocalServer:          {},
	OpenAICompatible:     {},
	AnthropicCompatible:  {},
	GoogleCompatible:     {},
	EnterpriseCompatible: {},
}

// Identities returns every known identity in stable alphabetical order.
func Identities() []Identity {
	ids := make([]Identity, 0, len(identitySet))
	for id := range identitySet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ParseIdentity validates a backend name. Unknown names yield a
// *ValidationError so callers can reject them before any persistence or
// network work.
func ParseIdentity(name string) (Identity, error) {
	id := Identity(name)
	if _, ok := identitySet[id]; !ok {
		return "", &ValidationError{Name: name}
	}
	return id, nil
}

// Config is the effective configuration of one backend: runtime overrides
// merged over static defaults. Fields that a backend does not use stay empty.
type Config struct {
	BaseURL   string `json:"base_url,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	Model     string `json:"model"`
	ProjectID string `json:"project_id,omitempty"`
}

// IsConfigured reports whether cfg carries every field the backend's
// adapter requires before it will attempt a call.
func IsConfigured(id Identity, cfg Config) bool {
	switch id {
	case LocalTunnel:
		return cfg.BaseURL != "" && cfg.APIKey != ""
	case LocalServer:
		return cfg.BaseURL != ""
	case OpenAICompatible, AnthropicCompatible, GoogleCompatible:
		return cfg.APIKey != ""
	case EnterpriseCompatible:
		return cfg.APIKey != "" && cfg.BaseURL != "" && cfg.ProjectID != ""
	default:
		return false
	}
}

// ConfigSource resolves the active backend and per-backend configuration.
// Implementations must return fresh values on every call so that runtime
// configuration updates take effect without a restart.
type ConfigSource interface {
	// ActiveProvider returns the identity used when a caller does not name one.
	ActiveProvider() Identity
	// ProviderConfig returns the effective configuration for the identity.
	ProviderConfig(id Identity) Config
}

// Provider generates text for a system/user instruction pair against one
// backend. Implementations read configuration at call time, fail with a
// *ConfigError before any network attempt when required fields are missing,
// and never log secrets.
type Provider interface {
	Identity() Identity
	Chat(ctx context.Context, system, user string) (string, error)
}
