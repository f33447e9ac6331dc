// Package httpapi exposes the assistant over a local HTTP API: provider
// management, model catalogs, job discovery, the application tracker, digest
// mail, packet drafting and browser assist.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/config"
	"github.com/ruslanmv/jobcraft/internal/discovery"
	"github.com/ruslanmv/jobcraft/internal/llm"
	"github.com/ruslanmv/jobcraft/internal/packet"
	"github.com/ruslanmv/jobcraft/internal/settings"
	"github.com/ruslanmv/jobcraft/internal/tracker"
)

// Chatter dispatches a chat turn to a backend.
type Chatter interface {
	Chat(ctx context.Context, name, system, user string) (string, error)
}

// ModelLister probes a backend for its available models.
type ModelLister interface {
	ListModels(ctx context.Context, id llm.Identity) ([]string, error)
}

// JobSource fetches postings from the board connectors.
type JobSource interface {
	Greenhouse(ctx context.Context, boardToken string, countries []string) ([]discovery.JobPosting, error)
	Lever(ctx context.Context, company string, countries []string) ([]discovery.JobPosting, error)
}

// DigestSender mails a rendered digest.
type DigestSender interface {
	Send(ctx context.Context, toEmail, subject, body string) error
}

// URLOpener opens an allowlisted page in the local browser.
type URLOpener interface {
	Open(url string) error
}

// Dependencies aggregates all services the HTTP layer needs.
type Dependencies struct {
	Settings  *config.Settings
	Store     *settings.Store
	Router    Chatter
	Catalog   ModelLister
	Discovery JobSource
	Tracker   *tracker.Store
	Digest    DigestSender
	Assist    URLOpener
	Packets   *packet.Builder
	Logger    *zap.Logger
}

// NewMux registers every route on a fresh ServeMux.
func NewMux(deps *Dependencies) *http.ServeMux {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", deps.handleHealth)

	mux.HandleFunc("GET /api/providers", deps.handleListProviders)
	mux.HandleFunc("GET /api/providers/status", deps.handleProviderStatus)
	mux.HandleFunc("GET /api/providers/active", deps.handleGetActiveProvider)
	mux.HandleFunc("PUT /api/providers/active", deps.handleSetActiveProvider)
	mux.HandleFunc("GET /api/providers/{id}/config", deps.handleGetProviderConfig)
	mux.HandleFunc("PUT /api/providers/{id}/config", deps.handleUpdateProviderConfig)
	mux.HandleFunc("GET /api/providers/{id}/models", deps.handleProviderModels)
	mux.HandleFunc("POST /api/providers/{id}/test", deps.handleTestProvider)

	mux.HandleFunc("GET /api/regions", deps.handleRegions)
	mux.HandleFunc("POST /api/chat", deps.handleChat)

	mux.HandleFunc("GET /api/discover/greenhouse/{board}", deps.handleDiscoverGreenhouse)
	mux.HandleFunc("GET /api/discover/lever/{company}", deps.handleDiscoverLever)

	mux.HandleFunc("GET /api/tracker/jobs", deps.handleListTrackedJobs)
	mux.HandleFunc("POST /api/tracker/jobs", deps.handleUpsertTrackedJob)

	mux.HandleFunc("POST /api/digest/email", deps.handleEmailDigest)
	mux.HandleFunc("POST /api/packet", deps.handleCreatePacket)
	mux.HandleFunc("POST /api/assist/open", deps.handleAssistOpen)

	return mux
}

// NewServer builds the HTTP server on the configured listen address.
func NewServer(deps *Dependencies) *http.Server {
	return &http.Server{
		Addr:              deps.Settings.ListenAddr,
		Handler:           NewMux(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (d *Dependencies) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "app": d.Settings.AppName})
}

func (d *Dependencies) handleRegions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"default_countries": d.Settings.DefaultCountries,
		"supported":         []string{"IT", "DE", "GB", "CH"},
		"timezone":          d.Settings.DefaultTimezone,
		"locale":            d.Settings.DefaultLocale,
	})
}
