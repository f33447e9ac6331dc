package llm

import "fmt"

// ConfigError reports a required configuration field that is missing for a
// backend. It is raised before any network attempt and is never retried.
type ConfigError struct {
	Provider Identity
	Field    string
	Hint     string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s: %s is not configured", e.Provider, e.Field)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// ValidationError reports an unknown backend name supplied by a caller.
type ValidationError struct {
	Name string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid provider: %q", e.Name)
}

// UpstreamError reports a backend call that kept failing after the retry
// budget was exhausted.
type UpstreamError struct {
	Provider Identity
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream call failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
