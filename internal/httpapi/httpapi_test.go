package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ruslanmv/jobcraft/internal/config"
	"github.com/ruslanmv/jobcraft/internal/discovery"
	"github.com/ruslanmv/jobcraft/internal/llm"
	"github.com/ruslanmv/jobcraft/internal/packet"
	"github.com/ruslanmv/jobcraft/internal/settings"
	"github.com/ruslanmv/jobcraft/internal/tracker"
)

type fakeChatter struct {
	reply string
	err   error
}

func (f *fakeChatter) Chat(ctx context.Context, name, system, user string) (string, error) {
	return f.reply, f.err
}

type fakeCatalog struct {
	models []string
	err    error
}

func (f *fakeCatalog) ListModels(ctx context.Context, id llm.Identity) ([]string, error) {
	return f.models, f.err
}

type fakeJobSource struct {
	jobs      []discovery.JobPosting
	err       error
	countries []string
}

func (f *fakeJobSource) Greenhouse(ctx context.Context, board string, countries []string) ([]discovery.JobPosting, error) {
	f.countries = countries
	return f.jobs, f.err
}

func (f *fakeJobSource) Lever(ctx context.Context, company string, countries []string) ([]discovery.JobPosting, error) {
	f.countries = countries
	return f.jobs, f.err
}

type fakeDigest struct {
	to   string
	body string
	err  error
}

func (f *fakeDigest) Send(ctx context.Context, toEmail, subject, body string) error {
	f.to = toEmail
	f.body = body
	return f.err
}

type fakeOpener struct {
	opened string
	err    error
}

func (f *fakeOpener) Open(url string) error {
	f.opened = url
	return f.err
}

type testEnv struct {
	deps    *Dependencies
	mux     *http.ServeMux
	source  *fakeJobSource
	digest  *fakeDigest
	opener  *fakeOpener
	catalog *fakeCatalog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	static := &config.Settings{
		AppName:          "jobcraft",
		DataDir:          t.TempDir(),
		DefaultProvider:  "local_tunnel",
		DefaultCountries: "IT,DE,GB,CH",
		DefaultLocale:    "en-GB",
		DefaultTimezone:  "Europe/Rome",
		ListenAddr:       ":0",
	}

	store := settings.NewStore(static, nil)
	trackerStore, err := tracker.OpenMemory()
	if err != nil {
		t.Fatalf("opening tracker: %v", err)
	}
	t.Cleanup(func() { trackerStore.Close() })

	env := &testEnv{
		source:  &fakeJobSource{},
		digest:  &fakeDigest{},
		opener:  &fakeOpener{},
		catalog: &fakeCatalog{models: []string{"m1", "m2"}},
	}
	env.deps = &Dependencies{
		Settings:  static,
		Store:     store,
		Router:    &fakeChatter{reply: "drafted"},
		Catalog:   env.catalog,
		Discovery: env.source,
		Tracker:   trackerStore,
		Digest:    env.digest,
		Assist:    env.opener,
		Packets:   packet.NewBuilder(&fakeChatter{reply: "# Packet"}, nil),
	}
	env.mux = NewMux(env.deps)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestListProvidersReportsConfiguredFlags(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.deps.Store.UpdateProviderConfig("openai_compatible", settings.Update{APIKey: "sk-test-abcd1234"}); err != nil {
		t.Fatalf("seeding key: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/providers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var infos []ProviderInfo
	decodeJSON(t, rec, &infos)
	if len(infos) != 6 {
		t.Fatalf("expected six providers, got %d", len(infos))
	}

	byID := map[string]ProviderInfo{}
	for _, p := range infos {
		byID[p.ID] = p
	}
	if !byID["openai_compatible"].Configured {
		t.Fatal("openai_compatible should be configured after the update")
	}
	if byID["anthropic_compatible"].Configured {
		t.Fatal("anthropic_compatible should not be configured")
	}
	if !byID["local_tunnel"].Recommended {
		t.Fatal("local_tunnel should be recommended")
	}
}

func TestActiveProviderRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/providers/active", map[string]string{"provider": "google_compatible"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/providers/active", nil)
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["active_provider"] != "google_compatible" {
		t.Fatalf("active provider not persisted: %v", body)
	}
}

func TestSetActiveProviderRejectsUnknown(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/providers/active", map[string]string{"provider": "skynet"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProviderConfigMasksKeys(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/providers/openai_compatible/config",
		map[string]string{"api_key": "sk-proj-abcdef1234", "model": "gpt-4o"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Provider string     `json:"provider"`
		Config   llm.Config `json:"config"`
	}
	decodeJSON(t, rec, &body)
	if body.Config.APIKey != "...1234" {
		t.Fatalf("key not masked: %q", body.Config.APIKey)
	}
	if body.Config.Model != "gpt-4o" {
		t.Fatalf("model not updated: %q", body.Config.Model)
	}

	rec = env.do(t, http.MethodGet, "/api/providers/openai_compatible/config", nil)
	decodeJSON(t, rec, &body)
	if body.Config.APIKey != "...1234" {
		t.Fatalf("key not masked on read: %q", body.Config.APIKey)
	}
}

func TestProviderConfigUnknownProvider(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/providers/skynet/config", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProviderModelsSoftError(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.err = errors.New("upstream unreachable")

	rec := env.do(t, http.MethodGet, "/api/providers/local_server/models", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog errors must stay 200, got %d", rec.Code)
	}

	var body struct {
		Models []string `json:"models"`
		Error  string   `json:"error"`
	}
	decodeJSON(t, rec, &body)
	if len(body.Models) != 0 {
		t.Fatalf("expected empty model list, got %v", body.Models)
	}
	if body.Error == "" {
		t.Fatal("expected the soft error field")
	}
}

func TestTestProviderReportsModelCount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/providers/local_server/test", nil)
	var body struct {
		Success     bool `json:"success"`
		ModelsCount int  `json:"models_count"`
	}
	decodeJSON(t, rec, &body)
	if !body.Success || body.ModelsCount != 2 {
		t.Fatalf("unexpected test result: %+v", body)
	}
}

func TestRegions(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/regions", nil)
	var body struct {
		DefaultCountries string   `json:"default_countries"`
		Supported        []string `json:"supported"`
	}
	decodeJSON(t, rec, &body)
	if body.DefaultCountries != "IT,DE,GB,CH" {
		t.Fatalf("unexpected default countries %q", body.DefaultCountries)
	}
	if len(body.Supported) != 4 {
		t.Fatalf("unexpected supported set %v", body.Supported)
	}
}

func TestDiscoverGreenhousePassesCountries(t *testing.T) {
	env := newTestEnv(t)
	env.source.jobs = []discovery.JobPosting{{ID: "1", Title: "Backend Engineer"}}

	rec := env.do(t, http.MethodGet, "/api/discover/greenhouse/acme?countries=it,de", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var body struct {
		Jobs []discovery.JobPosting `json:"jobs"`
	}
	decodeJSON(t, rec, &body)
	if len(body.Jobs) != 1 || body.Jobs[0].Title != "Backend Engineer" {
		t.Fatalf("unexpected jobs: %v", body.Jobs)
	}

	want := []string{"IT", "DE"}
	if fmt.Sprint(env.source.countries) != fmt.Sprint(want) {
		t.Fatalf("countries not parsed: %v", env.source.countries)
	}
}

func TestDiscoverDefaultsCountries(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodGet, "/api/discover/lever/acme", nil)
	if fmt.Sprint(env.source.countries) != fmt.Sprint([]string{"IT", "DE", "GB", "CH"}) {
		t.Fatalf("default countries not applied: %v", env.source.countries)
	}
}

func TestDiscoverSurfacesConnectorFailure(t *testing.T) {
	env := newTestEnv(t)
	env.source.err = errors.New("board not found")

	rec := env.do(t, http.MethodGet, "/api/discover/greenhouse/ghost", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestTrackerRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/tracker/jobs", tracker.Job{
		ID: "gh-1", Title: "SRE", Company: "Acme", URL: "https://x/1", Status: tracker.StatusShortlisted,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/tracker/jobs", nil)
	var body struct {
		Jobs []tracker.Job `json:"jobs"`
	}
	decodeJSON(t, rec, &body)
	if len(body.Jobs) != 1 || body.Jobs[0].Status != tracker.StatusShortlisted {
		t.Fatalf("unexpected jobs: %v", body.Jobs)
	}
}

func TestTrackerRejectsInvalidJob(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/tracker/jobs", tracker.Job{ID: "x", Status: "interviewing"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEmailDigestRendersTrackedJobs(t *testing.T) {
	env := newTestEnv(t)

	if err := env.deps.Tracker.Upsert(tracker.Job{ID: "1", Title: "SRE", Company: "Acme", URL: "https://x/1"}); err != nil {
		t.Fatalf("seeding tracker: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/digest/email", map[string]string{"to_email": "user@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if env.digest.to != "user@example.com" {
		t.Fatalf("recipient not forwarded: %q", env.digest.to)
	}
	if !strings.Contains(env.digest.body, "Acme — SRE") {
		t.Fatalf("digest body missing job line: %q", env.digest.body)
	}
}

func TestEmailDigestRequiresRecipient(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/digest/email", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAssistOpen(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/assist/open", map[string]string{"url": "https://jobs.lever.co/acme/1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if env.opener.opened != "https://jobs.lever.co/acme/1" {
		t.Fatalf("url not forwarded: %q", env.opener.opened)
	}
}

func TestAssistOpenRejection(t *testing.T) {
	env := newTestEnv(t)
	env.opener.err = errors.New("domain not allowlisted")

	rec := env.do(t, http.MethodPost, "/api/assist/open", map[string]string{"url": "https://linkedin.com/jobs"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreatePacketFromUpload(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	form.WriteField("job_title", "Backend Engineer")
	form.WriteField("company", "Acme")
	form.WriteField("job_description", "build services")
	form.WriteField("country", "GB")
	part, err := form.CreateFormFile("cv_file", "cv.txt")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	part.Write([]byte("ten years of Go"))
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/packet", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var body packet.Result
	decodeJSON(t, rec, &body)
	if body.Markdown != "# Packet" {
		t.Fatalf("unexpected packet: %q", body.Markdown)
	}
}

func TestChatDelegatesToRouter(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/chat", map[string]string{"message": "hi"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["reply"] != "drafted" {
		t.Fatalf("unexpected reply: %v", body)
	}
}

func TestChatMissingConfigurationIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Router = &fakeChatter{err: &llm.ConfigError{Provider: llm.OpenAICompatible, Field: "api_key"}}
	env.mux = NewMux(env.deps)

	rec := env.do(t, http.MethodPost, "/api/chat", map[string]string{"message": "hi"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestChatRequiresMessage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/chat", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreatePacketRequiresFields(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	form.WriteField("job_title", "Backend Engineer")
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/packet", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
