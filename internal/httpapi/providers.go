package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/llm"
	"github.com/ruslanmv/jobcraft/internal/settings"
)

// ProviderInfo describes one backend for configuration UIs.
type ProviderInfo struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Configured  bool   `json:"configured"`
	Recommended bool   `json:"recommended"`
}

type providerDescriptor struct {
	label       string
	kind        string
	icon        string
	description string
	recommended bool
}

var providerDescriptors = map[llm.Identity]providerDescriptor{
	llm.LocalTunnel: {
		label:       "Your Computer (Tunnel)",
		kind:        "local",
		icon:        "laptop",
		description: "Private, free, local AI via secure tunnel. Recommended for maximum privacy.",
		recommended: true,
	},
	llm.LocalServer: {
		label:       "Local Server",
		kind:        "local",
		icon:        "laptop",
		description: "Direct local inference server. Fast and private.",
	},
	llm.OpenAICompatible: {
		label:       "OpenAI-compatible",
		kind:        "cloud",
		icon:        "bot",
		description: "High reasoning capabilities. API key required.",
	},
	llm.AnthropicCompatible: {
		label:       "Anthropic-compatible",
		kind:        "cloud",
		icon:        "bot",
		description: "Excellent for writing. API key required.",
	},
	llm.GoogleCompatible: {
		label:       "Google-compatible",
		kind:        "cloud",
		icon:        "bot",
		description: "Fast and multimodal. API key required.",
	},
	llm.EnterpriseCompatible: {
		label:       "Enterprise",
		kind:        "cloud",
		icon:        "bot",
		description: "Enterprise grade security. API key and project id required.",
	},
}

func (d *Dependencies) handleListProviders(w http.ResponseWriter, r *http.Request) {
	configs := d.Store.AllConfigs()

	out := make([]ProviderInfo, 0, len(providerDescriptors))
	for _, id := range llm.Identities() {
		desc := providerDescriptors[id]
		out = append(out, ProviderInfo{
			ID:          string(id),
			Label:       desc.label,
			Type:        desc.kind,
			Icon:        desc.icon,
			Description: desc.description,
			Configured:  llm.IsConfigured(id, configs[id]),
			Recommended: desc.recommended,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (d *Dependencies) handleProviderStatus(w http.ResponseWriter, r *http.Request) {
	configs := d.Store.AllConfigs()

	providers := make(map[string]map[string]any, len(configs))
	for id, cfg := range configs {
		providers[string(id)] = map[string]any{
			"configured": llm.IsConfigured(id, cfg),
			"model":      cfg.Model,
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"active_provider": string(d.Store.ActiveProvider()),
		"providers":       providers,
	})
}

func (d *Dependencies) handleGetActiveProvider(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"active_provider": string(d.Store.ActiveProvider()),
	})
}

func (d *Dependencies) handleSetActiveProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string `json:"provider"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := d.Store.SetActiveProvider(req.Provider); err != nil {
		var valErr *llm.ValidationError
		if errors.As(err, &valErr) {
			respondError(w, http.StatusBadRequest, valErr.Error())
			return
		}
		d.Logger.Error("setting active provider", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to set active provider")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"active_provider": req.Provider,
		"message":         fmt.Sprintf("Active provider set to %s", req.Provider),
	})
}

func (d *Dependencies) handleGetProviderConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := d.parseProviderID(w, r)
	if !ok {
		return
	}

	cfg := settings.Masked(d.Store.ProviderConfig(id))
	respondJSON(w, http.StatusOK, map[string]any{
		"provider": string(id),
		"config":   cfg,
	})
}

func (d *Dependencies) handleUpdateProviderConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := d.parseProviderID(w, r)
	if !ok {
		return
	}

	var update settings.Update
	if err := decodeBody(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := d.Store.UpdateProviderConfig(string(id), update)
	if err != nil {
		var persErr *settings.PersistenceError
		if errors.As(err, &persErr) {
			d.Logger.Error("persisting provider config", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to update config")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"provider": string(id),
		"config":   settings.Masked(updated),
	})
}

func (d *Dependencies) handleProviderModels(w http.ResponseWriter, r *http.Request) {
	id, ok := d.parseProviderID(w, r)
	if !ok {
		return
	}

	// Catalog failures are soft: the UI renders an empty list with the error.
	models, err := d.Catalog.ListModels(r.Context(), id)
	payload := map[string]any{
		"provider": string(id),
		"models":   models,
	}
	if err != nil {
		payload["models"] = []string{}
		payload["error"] = err.Error()
	}
	respondJSON(w, http.StatusOK, payload)
}

func (d *Dependencies) handleTestProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := d.parseProviderID(w, r)
	if !ok {
		return
	}

	models, err := d.Catalog.ListModels(r.Context(), id)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"success":  false,
			"provider": string(id),
			"error":    err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"provider":     string(id),
		"models_count": len(models),
		"message":      fmt.Sprintf("Successfully connected to %s. Found %d models.", id, len(models)),
	})
}

func (d *Dependencies) parseProviderID(w http.ResponseWriter, r *http.Request) (llm.Identity, bool) {
	id, err := llm.ParseIdentity(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}
