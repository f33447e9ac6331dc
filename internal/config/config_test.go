package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	t.Setenv("DATA_DIR", t.TempDir())

	v := viper.New()
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		t.Fatalf("binding env: %v", err)
	}
	return v
}

func TestLoadAppliesDefaults(t *testing.T) {
	v := newTestViper(t)

	s, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if s.DefaultProvider != "local_tunnel" {
		t.Fatalf("unexpected default provider %q", s.DefaultProvider)
	}
	if s.Providers.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected openai model %q", s.Providers.OpenAI.Model)
	}
	if s.ListenAddr != ":8000" {
		t.Fatalf("unexpected listen addr %q", s.ListenAddr)
	}
	if s.SMTP.Port != 587 {
		t.Fatalf("unexpected smtp port %d", s.SMTP.Port)
	}

	if _, err := os.Stat(s.DataDir); err != nil {
		t.Fatalf("data dir not created: %v", err)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	v := newTestViper(t)
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("DEFAULT_COUNTRIES", "IT,CH")

	s, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Providers.OpenAI.APIKey != "sk-from-env" {
		t.Fatalf("env key not picked up: %q", s.Providers.OpenAI.APIKey)
	}
	if s.DefaultCountries != "IT,CH" {
		t.Fatalf("env countries not picked up: %q", s.DefaultCountries)
	}
}

func TestLoadResolvesKeyFiles(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "openai.key")
	if err := os.WriteFile(keyPath, []byte("sk-from-file\n"), 0o600); err != nil {
		t.Fatalf("writing key file: %v", err)
	}

	v := newTestViper(t)
	t.Setenv("OPENAI_API_KEY_FILE", keyPath)

	s, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Providers.OpenAI.APIKey != "sk-from-file" {
		t.Fatalf("key file not resolved: %q", s.Providers.OpenAI.APIKey)
	}
}

func TestLoadInlineKeyWinsOverKeyFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "openai.key")
	if err := os.WriteFile(keyPath, []byte("sk-from-file"), 0o600); err != nil {
		t.Fatalf("writing key file: %v", err)
	}

	v := newTestViper(t)
	t.Setenv("OPENAI_API_KEY", "sk-inline")
	t.Setenv("OPENAI_API_KEY_FILE", keyPath)

	s, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Providers.OpenAI.APIKey != "sk-inline" {
		t.Fatalf("inline key should win: %q", s.Providers.OpenAI.APIKey)
	}
}

func TestLoadFailsOnMissingKeyFile(t *testing.T) {
	v := newTestViper(t)
	t.Setenv("GEMINI_API_KEY_FILE", filepath.Join(t.TempDir(), "missing.key"))

	if _, err := Load(v); err == nil {
		t.Fatal("expected an error for a missing key file")
	}
}
