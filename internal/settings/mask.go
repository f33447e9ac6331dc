package settings

import "github.com/ruslanmv/jobcraft/internal/llm"

// MaskKey renders an API key for display. An empty key stays empty; a key of
// eight characters or fewer is masked fully; longer keys show only the last
// four characters. No surface ever reveals more than four trailing
// characters.
func MaskKey(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return "***"
	default:
		return "..." + key[len(key)-4:]
	}
}

// Masked returns a displayable copy of the configuration with the API key
// masked.
func Masked(cfg llm.Config) llm.Config {
	cfg.APIKey = MaskKey(cfg.APIKey)
	return cfg
}
