// Package secrets resolves API keys from key files so they can stay out of
// the environment and shell history.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a secret value comes from.
type Source struct {
	// Name gives error messages context, e.g. "openai api key".
	Name string
	// Value is an inline secret from configuration or flags.
	Value string
	// File points to a file holding the secret. When set it takes
	// precedence over Value.
	File string
}

// Load resolves and trims the secret. Missing or empty sources are errors so
// callers fail at startup rather than on the first provider call.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	value := src.Value
	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		value = string(data)
	}

	secret := strings.TrimSpace(value)
	if secret == "" {
		if file != "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
