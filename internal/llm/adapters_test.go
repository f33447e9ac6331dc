package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubSource struct {
	active  Identity
	configs map[Identity]Config
}

func (s *stubSource) ActiveProvider() Identity { return s.active }

func (s *stubSource) ProviderConfig(id Identity) Config { return s.configs[id] }

type countingTransport struct {
	calls int32
}

func (t *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	atomic.AddInt32(&t.calls, 1)
	return nil, errors.New("unexpected network call")
}

func stubWait(t *testing.T) {
	t.Helper()
	original := waitFor
	waitFor = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { waitFor = original })
}

func TestAdaptersFailFastOnMissingConfig(t *testing.T) {
	stubWait(t)

	src := &stubSource{configs: map[Identity]Config{
		// every identity resolves to an empty config
	}}

	transport := &countingTransport{}
	client := &http.Client{Transport: transport}
	logger := zap.NewNop()

	providers := []Provider{
		&tunnelProvider{cfg: src, logger: logger, client: client, retry: defaultRetry},
		&serverProvider{cfg: src, logger: logger, client: client, retry: defaultRetry},
		&openAIProvider{cfg: src, logger: logger, client: client, retry: defaultRetry},
		&anthropicProvider{cfg: src, logger: logger, client: client, retry: defaultRetry},
		&googleProvider{cfg: src, logger: logger, client: client, retry: defaultRetry},
		&enterpriseProvider{cfg: src, logger: logger, client: client, retry: defaultRetry},
	}

	for _, p := range providers {
		_, err := p.Chat(context.Background(), "system", "user")
		if err == nil {
			t.Fatalf("%s: expected a configuration error", p.Identity())
		}

		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s: expected *ConfigError, got %T: %v", p.Identity(), err, err)
		}
		if cfgErr.Provider != p.Identity() {
			t.Fatalf("expected error for %s, got %s", p.Identity(), cfgErr.Provider)
		}
	}

	if got := atomic.LoadInt32(&transport.calls); got != 0 {
		t.Fatalf("expected no network calls, got %d", got)
	}
}

func TestTunnelChatSendsDualAuthHeaders(t *testing.T) {
	stubWait(t)

	var gotCustom, gotBearer, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCustom = r.Header.Get("X-API-Key")
		gotBearer = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		var req openAIChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Stream {
			t.Errorf("expected stream to be false")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "tunnel says hi"}}},
		})
	}))
	defer server.Close()

	src := &stubSource{configs: map[Identity]Config{
		LocalTunnel: {BaseURL: server.URL, APIKey: "secret-key", Model: "deepseek-r1"},
	}}

	p := &tunnelProvider{cfg: src, logger: zap.NewNop(), client: server.Client(), retry: defaultRetry}

	out, err := p.Chat(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "tunnel says hi" {
		t.Fatalf("unexpected output: %q", out)
	}
	if gotCustom != "secret-key" {
		t.Fatalf("expected custom header key, got %q", gotCustom)
	}
	if gotBearer != "Bearer secret-key" {
		t.Fatalf("expected bearer header, got %q", gotBearer)
	}
	if gotPath != "/v1/chat/completions" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
}

func TestServerChatReturnsEmptyWhenMessageAbsent(t *testing.T) {
	stubWait(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %q", r.URL.Path)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	src := &stubSource{configs: map[Identity]Config{
		LocalServer: {BaseURL: server.URL, Model: "deepseek-r1"},
	}}

	p := &serverProvider{cfg: src, logger: zap.NewNop(), client: server.Client(), retry: defaultRetry}

	out, err := p.Chat(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestAnthropicChatConcatenatesTextBlocks(t *testing.T) {
	stubWait(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "anthropic-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing version header")
		}

		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["system"] != "system" {
			t.Errorf("expected separate system field, got %v", req["system"])
		}
		if req["max_tokens"] != float64(anthropicMaxTokens) {
			t.Errorf("unexpected max_tokens: %v", req["max_tokens"])
		}

		w.Write([]byte(`{"content":[
			{"type":"text","text":"Hello, "},
			{"type":"tool_use","text":"ignored"},
			{"type":"text","text":"world"}
		]}`))
	}))
	defer server.Close()

	src := &stubSource{configs: map[Identity]Config{
		AnthropicCompatible: {BaseURL: server.URL, APIKey: "anthropic-key", Model: "claude-3-5-sonnet-latest"},
	}}

	p := &anthropicProvider{cfg: src, logger: zap.NewNop(), client: server.Client(), retry: defaultRetry}

	out, err := p.Chat(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Hello, world" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestEnterpriseChatConcatenatesInput(t *testing.T) {
	stubWait(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["input"] != "system\n\nuser" {
			t.Errorf("unexpected input: %v", req["input"])
		}
		if req["project_id"] != "project-1" {
			t.Errorf("unexpected project id: %v", req["project_id"])
		}

		w.Write([]byte(`{"results":[{"generated_text":"enterprise output"}]}`))
	}))
	defer server.Close()

	src := &stubSource{configs: map[Identity]Config{
		EnterpriseCompatible: {BaseURL: server.URL, APIKey: "key", Model: "ibm/granite-3-8b-instruct", ProjectID: "project-1"},
	}}

	p := &enterpriseProvider{cfg: src, logger: zap.NewNop(), client: server.Client(), retry: defaultRetry}

	out, err := p.Chat(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "enterprise output" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestChatRetriesTransientFailures(t *testing.T) {
	stubWait(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "third time lucky"}}},
		})
	}))
	defer server.Close()

	src := &stubSource{configs: map[Identity]Config{
		LocalTunnel: {BaseURL: server.URL, APIKey: "key", Model: "m"},
	}}

	p := &tunnelProvider{cfg: src, logger: zap.NewNop(), client: server.Client(), retry: defaultRetry}

	out, err := p.Chat(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if out != "third time lucky" {
		t.Fatalf("unexpected output: %q", out)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestChatSurfacesUpstreamErrorAfterExhaustedRetries(t *testing.T) {
	stubWait(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "still broken", http.StatusInternalServerError)
	}))
	defer server.Close()

	src := &stubSource{configs: map[Identity]Config{
		LocalTunnel: {BaseURL: server.URL, APIKey: "key", Model: "m"},
	}}

	p := &tunnelProvider{cfg: src, logger: zap.NewNop(), client: server.Client(), retry: defaultRetry}

	_, err := p.Chat(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected an error")
	}

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %T: %v", err, err)
	}
	if upErr.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", upErr.Attempts)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected exactly 3 network calls, got %d", got)
	}
}

func TestChatReadsConfigFreshOnEveryCall(t *testing.T) {
	stubWait(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer server.Close()

	src := &stubSource{configs: map[Identity]Config{}}

	p := &tunnelProvider{cfg: src, logger: zap.NewNop(), client: server.Client(), retry: defaultRetry}

	if _, err := p.Chat(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected configuration error before the backend was configured")
	}

	src.configs[LocalTunnel] = Config{BaseURL: server.URL, APIKey: "key", Model: "m"}

	if _, err := p.Chat(context.Background(), "system", "user"); err != nil {
		t.Fatalf("expected success after configuration, got %v", err)
	}
}
