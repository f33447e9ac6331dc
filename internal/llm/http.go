package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ruslanmv/jobcraft/internal/utils"
)

const contentTypeJSON = "application/json"

// timeouts per call kind. Probes stay short so a dead backend does not stall
// a multi-provider status view; generation calls get room to think.
const (
	probeTimeout       = 10 * time.Second
	chatTimeout        = 90 * time.Second
	tunnelChatTimeout  = 120 * time.Second
	errBodySnippetSize = 300
)

// postJSON sends one JSON POST and decodes the 2xx response into out. A
// non-2xx status or transport failure comes back as a plain error for the
// retry layer to budget against.
func postJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return doJSON(client, req, out)
}

// getJSON sends one GET and decodes the 2xx response into out.
func getJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	return doJSON(client, req, out)
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errBodySnippetSize))
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, utils.TruncateForLog(string(snippet), errBodySnippetSize))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func normalizeBase(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}
