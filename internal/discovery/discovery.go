// Package discovery fetches job postings from compliant board APIs
// (Greenhouse, Lever, Ashby) and reduces them to a common shape. Restricted
// platforms are deliberately unsupported.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	greenhouseBaseURL = "https://boards-api.greenhouse.io"
	leverBaseURL      = "https://api.lever.co"

	fetchTimeout = 30 * time.Second

	// MaxResults caps every discovery response.
	MaxResults = 100
)

// Client talks to the public board APIs.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger

	greenhouseBase string
	leverBase      string
}

func NewClient(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient:     &http.Client{Timeout: fetchTimeout},
		logger:         logger,
		greenhouseBase: greenhouseBaseURL,
		leverBase:      leverBaseURL,
	}
}

// Greenhouse lists the jobs of a board token, filtered by country codes and
// capped at MaxResults.
func (c *Client) Greenhouse(ctx context.Context, boardToken string, countries []string) ([]JobPosting, error) {
	url := fmt.Sprintf("%s/v1/boards/%s/jobs", c.greenhouseBase, boardToken)

	var payload struct {
		Jobs []map[string]any `json:"jobs"`
	}
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("greenhouse board %q: %w", boardToken, err)
	}

	var wire []greenhouseJob
	if err := decodeWire(payload.Jobs, &wire); err != nil {
		return nil, fmt.Errorf("greenhouse board %q: %w", boardToken, err)
	}

	postings := make([]JobPosting, 0, len(wire))
	for _, j := range wire {
		postings = append(postings, fromGreenhouse(j))
	}

	c.logger.Debug("fetched greenhouse board",
		zap.String("board", boardToken),
		zap.Int("jobs", len(postings)),
	)

	return cap100(filterByCountry(postings, countries)), nil
}

// Lever lists the postings of a company, filtered by country codes and
// capped at MaxResults.
func (c *Client) Lever(ctx context.Context, company string, countries []string) ([]JobPosting, error) {
	url := fmt.Sprintf("%s/v0/postings/%s?mode=json", c.leverBase, company)

	var payload []map[string]any
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("lever company %q: %w", company, err)
	}

	var wire []leverPosting
	if err := decodeWire(payload, &wire); err != nil {
		return nil, fmt.Errorf("lever company %q: %w", company, err)
	}

	postings := make([]JobPosting, 0, len(wire))
	for _, j := range wire {
		postings = append(postings, fromLever(j, company))
	}

	c.logger.Debug("fetched lever postings",
		zap.String("company", company),
		zap.Int("jobs", len(postings)),
	)

	return cap100(filterByCountry(postings, countries)), nil
}

// FetchPage downloads a job page as raw text. Ashby boards have no public
// listing API, so callers pass a concrete page URL.
func (c *Client) FetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetching page: bad status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}
	return string(body), nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("bad status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeWire maps the loosely-typed API payload onto wire structs, matching
// fields by their json tags.
func decodeWire(in, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "json",
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}
	if err := decoder.Decode(in); err != nil {
		return fmt.Errorf("decoding postings: %w", err)
	}
	return nil
}

func cap100(postings []JobPosting) []JobPosting {
	if len(postings) > MaxResults {
		return postings[:MaxResults]
	}
	return postings
}
