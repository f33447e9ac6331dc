// Package assist opens job pages in the user's browser so they can review
// and submit applications themselves. It refuses anything outside the
// configured domain allowlist and never interacts with the page.
package assist

import (
	"fmt"

	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/safety"
)

// Opener hands allowlisted URLs to the local browser.
type Opener struct {
	allowlistCSV string
	logger       *zap.Logger

	// openURL is swapped out in tests.
	openURL func(url string) error
}

func NewOpener(allowlistCSV string, logger *zap.Logger) *Opener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Opener{
		allowlistCSV: allowlistCSV,
		logger:       logger,
		openURL:      browser.OpenURL,
	}
}

// Open launches the URL in the default browser. Domains outside the
// allowlist are rejected before anything is opened.
func (o *Opener) Open(url string) error {
	if !safety.IsDomainAllowed(url, o.allowlistCSV) {
		return fmt.Errorf("domain not allowlisted for browser assist: %s", url)
	}

	if err := o.openURL(url); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}

	o.logger.Info("opened job page for review", zap.String("url", url))
	return nil
}
