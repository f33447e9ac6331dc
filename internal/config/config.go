// Package config loads the process-wide static settings. The settings are
// read once at startup from the environment (optionally layered over a config
// file) and injected into every component that needs them; runtime overrides
// live in the settings store, not here.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ruslanmv/jobcraft/internal/secrets"
)

const (
	// RuntimeConfigFile is the name of the runtime override file inside DataDir.
	RuntimeConfigFile = "provider_config.json"

	defaultDataDirName = ".jobcraft"
)

// TunnelSettings configures the local tunnel backend.
type TunnelSettings struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	APIKeyFile string `mapstructure:"api_key_file"`
	Model      string `mapstructure:"model"`
}

// ServerSettings configures the local inference server backend.
type ServerSettings struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// CloudSettings configures an API-key based cloud backend.
type CloudSettings struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	APIKeyFile string `mapstructure:"api_key_file"`
	Model      string `mapstructure:"model"`
}

// EnterpriseSettings configures the enterprise backend, which additionally
// requires a project id.
type EnterpriseSettings struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	APIKeyFile string `mapstructure:"api_key_file"`
	Model      string `mapstructure:"model"`
	ProjectID  string `mapstructure:"project_id"`
}

// ProviderSettings groups the per-backend static configuration.
type ProviderSettings struct {
	LocalTunnel TunnelSettings     `mapstructure:"local_tunnel"`
	LocalServer ServerSettings     `mapstructure:"local_server"`
	OpenAI      CloudSettings      `mapstructure:"openai_compatible"`
	Anthropic   CloudSettings      `mapstructure:"anthropic_compatible"`
	Google      CloudSettings      `mapstructure:"google_compatible"`
	Enterprise  EnterpriseSettings `mapstructure:"enterprise_compatible"`
}

// SMTPSettings configures the digest email sender.
type SMTPSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Settings is the static configuration, constructed once per process.
type Settings struct {
	AppName string `mapstructure:"app_name"`
	Env     string `mapstructure:"env"`
	DataDir string `mapstructure:"data_dir"`

	DefaultProvider string           `mapstructure:"default_provider"`
	Providers       ProviderSettings `mapstructure:"providers"`

	DefaultCountries string `mapstructure:"default_countries"`
	DefaultLocale    string `mapstructure:"default_locale"`
	DefaultTimezone  string `mapstructure:"default_timezone"`

	SMTP SMTPSettings `mapstructure:"smtp"`

	AllowlistJobDomains string `mapstructure:"allowlist_job_domains"`
	ListenAddr          string `mapstructure:"listen_addr"`
}

// envBindings maps viper keys to the environment variables users set.
// A key is only picked up from the environment when bound here.
var envBindings = map[string]string{
	"app_name":         "APP_NAME",
	"env":              "ENV",
	"data_dir":         "DATA_DIR",
	"default_provider": "DEFAULT_PROVIDER",

	"providers.local_tunnel.base_url":     "LOCAL_TUNNEL_BASE_URL",
	"providers.local_tunnel.api_key":      "LOCAL_TUNNEL_API_KEY",
	"providers.local_tunnel.api_key_file": "LOCAL_TUNNEL_API_KEY_FILE",
	"providers.local_tunnel.model":        "LOCAL_TUNNEL_MODEL",

	"providers.local_server.base_url": "LOCAL_SERVER_BASE_URL",
	"providers.local_server.model":    "LOCAL_SERVER_MODEL",

	"providers.openai_compatible.base_url":     "OPENAI_BASE_URL",
	"providers.openai_compatible.api_key":      "OPENAI_API_KEY",
	"providers.openai_compatible.api_key_file": "OPENAI_API_KEY_FILE",
	"providers.openai_compatible.model":        "OPENAI_MODEL",

	"providers.anthropic_compatible.base_url":     "ANTHROPIC_BASE_URL",
	"providers.anthropic_compatible.api_key":      "ANTHROPIC_API_KEY",
	"providers.anthropic_compatible.api_key_file": "ANTHROPIC_API_KEY_FILE",
	"providers.anthropic_compatible.model":        "ANTHROPIC_MODEL",

	"providers.google_compatible.api_key":      "GEMINI_API_KEY",
	"providers.google_compatible.api_key_file": "GEMINI_API_KEY_FILE",
	"providers.google_compatible.model":        "GEMINI_MODEL",

	"providers.enterprise_compatible.base_url":     "WATSONX_URL",
	"providers.enterprise_compatible.api_key":      "WATSONX_API_KEY",
	"providers.enterprise_compatible.api_key_file": "WATSONX_API_KEY_FILE",
	"providers.enterprise_compatible.model":        "WATSONX_MODEL_ID",
	"providers.enterprise_compatible.project_id":   "WATSONX_PROJECT_ID",

	"default_countries": "DEFAULT_COUNTRIES",
	"default_locale":    "DEFAULT_LOCALE",
	"default_timezone":  "DEFAULT_TIMEZONE",

	"smtp.host":     "SMTP_HOST",
	"smtp.port":     "SMTP_PORT",
	"smtp.username": "SMTP_USERNAME",
	"smtp.password": "SMTP_PASSWORD",
	"smtp.from":     "SMTP_FROM",

	"allowlist_job_domains": "ALLOWLIST_JOB_DOMAINS",
	"listen_addr":           "LISTEN_ADDR",
}

// SetDefaults registers every recognized key with its default value so that
// environment-only values survive the unmarshal. Absent optional fields stay
// empty and only become errors when a backend actually needs them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "JobCraft Copilot")
	v.SetDefault("env", "dev")
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("default_provider", "local_tunnel")

	v.SetDefault("providers.local_tunnel.base_url", "")
	v.SetDefault("providers.local_tunnel.api_key", "")
	v.SetDefault("providers.local_tunnel.api_key_file", "")
	v.SetDefault("providers.local_tunnel.model", "deepseek-r1")

	v.SetDefault("providers.local_server.base_url", "http://localhost:11434")
	v.SetDefault("providers.local_server.model", "deepseek-r1")

	v.SetDefault("providers.openai_compatible.base_url", "")
	v.SetDefault("providers.openai_compatible.api_key", "")
	v.SetDefault("providers.openai_compatible.api_key_file", "")
	v.SetDefault("providers.openai_compatible.model", "gpt-4o-mini")

	v.SetDefault("providers.anthropic_compatible.base_url", "")
	v.SetDefault("providers.anthropic_compatible.api_key", "")
	v.SetDefault("providers.anthropic_compatible.api_key_file", "")
	v.SetDefault("providers.anthropic_compatible.model", "claude-3-5-sonnet-latest")

	v.SetDefault("providers.google_compatible.api_key", "")
	v.SetDefault("providers.google_compatible.api_key_file", "")
	v.SetDefault("providers.google_compatible.model", "gemini-1.5-pro")

	v.SetDefault("providers.enterprise_compatible.base_url", "https://us-south.ml.cloud.ibm.com")
	v.SetDefault("providers.enterprise_compatible.api_key", "")
	v.SetDefault("providers.enterprise_compatible.api_key_file", "")
	v.SetDefault("providers.enterprise_compatible.model", "ibm/granite-3-8b-instruct")
	v.SetDefault("providers.enterprise_compatible.project_id", "")

	v.SetDefault("default_countries", "IT,DE,GB,CH")
	v.SetDefault("default_locale", "en-GB")
	v.SetDefault("default_timezone", "Europe/Rome")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")

	v.SetDefault("allowlist_job_domains", "boards.greenhouse.io,jobs.lever.co,jobs.ashbyhq.com,workable.com")
	v.SetDefault("listen_addr", ":8000")
}

// BindEnv attaches the recognized environment variables to their viper keys.
func BindEnv(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("binding %s environment variable: %w", env, err)
		}
	}
	return nil
}

// Load unmarshals the prepared viper instance into Settings and ensures the
// data directory exists. Malformed typed values (e.g. a non-integer SMTP
// port) fail here; absent optional fields do not.
func Load(v *viper.Viper) (*Settings, error) {
	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if settings.DataDir == "" {
		settings.DataDir = defaultDataDir()
	}

	if err := os.MkdirAll(settings.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %q: %w", settings.DataDir, err)
	}

	if err := resolveKeyFiles(&settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// resolveKeyFiles reads API keys from their key files. An inline key always
// wins, so a stale key file never shadows an explicit value.
func resolveKeyFiles(settings *Settings) error {
	p := &settings.Providers
	targets := []struct {
		name string
		key  *string
		file string
	}{
		{"local tunnel api key", &p.LocalTunnel.APIKey, p.LocalTunnel.APIKeyFile},
		{"openai api key", &p.OpenAI.APIKey, p.OpenAI.APIKeyFile},
		{"anthropic api key", &p.Anthropic.APIKey, p.Anthropic.APIKeyFile},
		{"google api key", &p.Google.APIKey, p.Google.APIKeyFile},
		{"enterprise api key", &p.Enterprise.APIKey, p.Enterprise.APIKeyFile},
	}

	for _, t := range targets {
		if *t.key != "" || t.file == "" {
			continue
		}
		value, err := secrets.Load(secrets.Source{Name: t.name, File: t.file})
		if err != nil {
			return err
		}
		*t.key = value
	}
	return nil
}

// New builds a settings instance from a fresh viper using only defaults and
// the environment. Tests and library callers use this; the CLI layers a
// config file on top via its own viper instance.
func New() (*Settings, error) {
	v := viper.New()
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}
	return Load(v)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDataDirName
	}
	return filepath.Join(home, defaultDataDirName)
}
