// Package settings layers persisted runtime overrides on top of the static
// configuration. Overrides live in one JSON file inside the data directory
// and are edited through the management surface, so users can change provider
// credentials without touching the environment.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/config"
	"github.com/ruslanmv/jobcraft/internal/llm"
)

const (
	fieldBaseURL   = "base_url"
	fieldAPIKey    = "api_key"
	fieldModel     = "model"
	fieldProjectID = "project_id"
)

// PersistenceError reports a failed write of the override file. The in-memory
// state is left as it was before the failed write.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("saving runtime config %q: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// fileState is the persisted override structure. Absent fields inherit the
// static configuration; an absent file means no overrides exist.
type fileState struct {
	ActiveProvider string                       `json:"active_provider,omitempty"`
	Providers      map[string]map[string]string `json:"providers,omitempty"`
}

// Update carries partial override fields for one provider. Empty values are
// dropped, never applied, so a blank form field cannot erase a stored value.
type Update struct {
	BaseURL   string `json:"base_url"`
	APIKey    string `json:"api_key"`
	Model     string `json:"model"`
	ProjectID string `json:"project_id"`
}

// Store merges runtime overrides over static defaults. Reads recompute the
// merge every time so updates are visible immediately. Mutations rewrite the
// whole file; concurrent writers from other processes are last-writer-wins,
// which the single-local-user assumption makes acceptable.
type Store struct {
	static *config.Settings
	logger *zap.Logger
	path   string

	mu     sync.RWMutex
	state  fileState
	loaded bool
}

// NewStore creates a store persisting to the runtime config file inside the
// static data directory.
func NewStore(static *config.Settings, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		static: static,
		logger: logger,
		path:   filepath.Join(static.DataDir, config.RuntimeConfigFile),
	}
}

// ActiveProvider returns the runtime override when present, else the static
// default. An unparseable stored value falls back to the static default.
func (s *Store) ActiveProvider() llm.Identity {
	s.mu.Lock()
	s.loadLocked()
	name := s.state.ActiveProvider
	s.mu.Unlock()

	if name != "" {
		if id, err := llm.ParseIdentity(name); err == nil {
			return id
		}
	}

	if id, err := llm.ParseIdentity(s.static.DefaultProvider); err == nil {
		return id
	}
	return llm.LocalTunnel
}

// SetActiveProvider validates and persists the active provider override. The
// file is never written with an invalid value.
func (s *Store) SetActiveProvider(name string) error {
	id, err := llm.ParseIdentity(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()

	next := s.cloneStateLocked()
	next.ActiveProvider = string(id)
	if err := s.saveLocked(next); err != nil {
		return err
	}

	s.state = next
	s.logger.Info("active provider updated", zap.String("provider", string(id)))
	return nil
}

// ProviderConfig returns the effective configuration for the identity:
// override fields win when present and non-empty, else the static value.
func (s *Store) ProviderConfig(id llm.Identity) llm.Config {
	s.mu.Lock()
	s.loadLocked()
	override := s.state.Providers[string(id)]
	s.mu.Unlock()

	cfg := s.staticConfig(id)
	if v := override[fieldBaseURL]; v != "" {
		cfg.BaseURL = v
	}
	if v := override[fieldAPIKey]; v != "" {
		cfg.APIKey = v
	}
	if v := override[fieldModel]; v != "" {
		cfg.Model = v
	}
	if v := override[fieldProjectID]; v != "" {
		cfg.ProjectID = v
	}
	return cfg
}

// UpdateProviderConfig merges the non-empty update fields into the stored
// override for the identity, persists, and returns the new effective view.
func (s *Store) UpdateProviderConfig(name string, update Update) (llm.Config, error) {
	id, err := llm.ParseIdentity(name)
	if err != nil {
		return llm.Config{}, err
	}

	s.mu.Lock()
	s.loadLocked()

	next := s.cloneStateLocked()
	if next.Providers == nil {
		next.Providers = map[string]map[string]string{}
	}
	override := next.Providers[string(id)]
	if override == nil {
		override = map[string]string{}
		next.Providers[string(id)] = override
	}

	for field, value := range map[string]string{
		fieldBaseURL:   update.BaseURL,
		fieldAPIKey:    update.APIKey,
		fieldModel:     update.Model,
		fieldProjectID: update.ProjectID,
	} {
		if value != "" {
			override[field] = value
		}
	}

	if err := s.saveLocked(next); err != nil {
		s.mu.Unlock()
		return llm.Config{}, err
	}
	s.state = next
	s.mu.Unlock()

	return s.ProviderConfig(id), nil
}

// AllConfigs returns the effective configuration for every known identity.
func (s *Store) AllConfigs() map[llm.Identity]llm.Config {
	configs := make(map[llm.Identity]llm.Config, len(llm.Identities()))
	for _, id := range llm.Identities() {
		configs[id] = s.ProviderConfig(id)
	}
	return configs
}

// loadLocked reads the override file once per process. A missing file means
// no overrides; an unreadable one is logged and treated the same.
func (s *Store) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to load runtime config", zap.String("path", s.path), zap.Error(err))
		}
		return
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("failed to parse runtime config", zap.String("path", s.path), zap.Error(err))
		return
	}
	s.state = state
}

func (s *Store) saveLocked(state fileState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return &PersistenceError{Path: s.path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &PersistenceError{Path: s.path, Err: err}
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return &PersistenceError{Path: s.path, Err: err}
	}
	return nil
}

func (s *Store) cloneStateLocked() fileState {
	clone := fileState{ActiveProvider: s.state.ActiveProvider}
	if s.state.Providers != nil {
		clone.Providers = make(map[string]map[string]string, len(s.state.Providers))
		for id, fields := range s.state.Providers {
			copied := make(map[string]string, len(fields))
			for k, v := range fields {
				copied[k] = v
			}
			clone.Providers[id] = copied
		}
	}
	return clone
}

func (s *Store) staticConfig(id llm.Identity) llm.Config {
	p := s.static.Providers
	switch id {
	case llm.LocalTunnel:
		return llm.Config{BaseURL: p.LocalTunnel.BaseURL, APIKey: p.LocalTunnel.APIKey, Model: p.LocalTunnel.Model}
	case llm.LocalServer:
		return llm.Config{BaseURL: p.LocalServer.BaseURL, Model: p.LocalServer.Model}
	case llm.OpenAICompatible:
		return llm.Config{BaseURL: p.OpenAI.BaseURL, APIKey: p.OpenAI.APIKey, Model: p.OpenAI.Model}
	case llm.AnthropicCompatible:
		return llm.Config{BaseURL: p.Anthropic.BaseURL, APIKey: p.Anthropic.APIKey, Model: p.Anthropic.Model}
	case llm.GoogleCompatible:
		return llm.Config{APIKey: p.Google.APIKey, Model: p.Google.Model}
	case llm.EnterpriseCompatible:
		return llm.Config{BaseURL: p.Enterprise.BaseURL, APIKey: p.Enterprise.APIKey, Model: p.Enterprise.Model, ProjectID: p.Enterprise.ProjectID}
	default:
		return llm.Config{}
	}
}
