// Package search implements the search port against a Custom-Search-style
// JSON API.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"merchlens/internal/resilience"
	"merchlens/internal/services"
)

const (
	defaultBaseURL    = "https://www.googleapis.com/customsearch/v1"
	defaultNumResults = 5
	defaultTimeout    = 10 * time.Second
)

// Config captures the credentials and tuning for the search API.
type Config struct {
	APIKey     string
	EngineID   string
	BaseURL    string
	NumResults int
}

// Client queries the web search API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ services.Search = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a search client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.EngineID = strings.TrimSpace(cfg.EngineID)
	if cfg.APIKey == "" {
		return nil, errors.New("search api key required")
	}
	if cfg.EngineID == "" {
		return nil, errors.New("search engine id required")
	}
	if cfg.BaseURL = strings.TrimSpace(cfg.BaseURL); cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.NumResults <= 0 {
		cfg.NumResults = defaultNumResults
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search issues one query and returns results in ranking order. A query
// that matches nothing returns an empty slice with a nil error.
func (c *Client) Search(ctx context.Context, query string) ([]services.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search: query required")
	}

	params := url.Values{}
	params.Set("key", c.cfg.APIKey)
	params.Set("cx", c.cfg.EngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(c.cfg.NumResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &resilience.RetriableError{Reason: "search: read body", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, body, resp.Header.Get("Retry-After"))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &resilience.MalformedPayloadError{Op: "search", Err: err}
	}
	results := make([]services.SearchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		results = append(results, services.SearchResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}

func classifyStatus(status int, body []byte, retryAfter string) error {
	detail := strings.TrimSpace(string(body))
	base := fmt.Errorf("search: http %d: %s", status, detail)
	lowered := strings.ToLower(detail)
	switch {
	case status == http.StatusTooManyRequests && strings.Contains(lowered, "quota"),
		status == http.StatusForbidden && strings.Contains(lowered, "quota"):
		// The daily search quota does not recover within a job's lifetime.
		return &resilience.QuotaError{Reason: "search: daily quota exhausted", Err: base}
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return &resilience.RetriableError{
			Reason:     "search: transient failure",
			RetryAfter: parseRetryAfter(retryAfter),
			Err:        base,
		}
	default:
		return base
	}
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &resilience.RetriableError{Reason: "search: timeout", Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &resilience.RetriableError{Reason: "search: transport failure", Err: err}
	}
	return fmt.Errorf("search: %w", err)
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
