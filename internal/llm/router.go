package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	applog "github.com/ruslanmv/jobcraft/internal/logger"
)

// Router holds one adapter per identity and dispatches chat calls. Requests
// that omit the backend name, or name an unknown backend, fall back to the
// active provider from the config source. There is no cross-backend fallback:
// a failed call fails.
type Router struct {
	cfg       ConfigSource
	logger    *zap.Logger
	providers map[Identity]Provider
}

// NewRouter constructs a router with every known adapter registered.
func NewRouter(cfg ConfigSource, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	providers := map[Identity]Provider{}
	for _, p := range []Provider{
		newTunnelProvider(cfg, logger),
		newServerProvider(cfg, logger),
		newOpenAIProvider(cfg, logger),
		newAnthropicProvider(cfg, logger),
		newGoogleProvider(cfg, logger),
		newEnterpriseProvider(cfg, logger),
	} {
		providers[p.Identity()] = p
	}

	return &Router{cfg: cfg, logger: logger, providers: providers}
}

// Identities returns the registered backend names in stable alphabetical
// order for deterministic rendering.
func (r *Router) Identities() []Identity {
	return Identities()
}

// Chat resolves the backend and delegates the call. Adapter failures
// propagate unchanged; translating them is the caller's job.
func (r *Router) Chat(ctx context.Context, name, system, user string) (string, error) {
	id := r.resolve(name)

	provider, ok := r.providers[id]
	if !ok {
		return "", fmt.Errorf("no adapter registered for provider %q", id)
	}

	log := applog.WithCommonFields(r.logger, string(id), r.cfg.ProviderConfig(id).Model)
	log.Debug("dispatching chat request")

	return provider.Chat(ctx, system, user)
}

func (r *Router) resolve(name string) Identity {
	if name != "" {
		if id, err := ParseIdentity(name); err == nil {
			return id
		}
	}
	return r.cfg.ActiveProvider()
}
