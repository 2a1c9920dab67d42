// Package place implements the paid place-lookup port used by enhanced
// mode, against a Places-style text-search API.
package place

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"merchlens/internal/resilience"
	"merchlens/internal/services"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	defaultTimeout = 10 * time.Second
)

// Config captures the place-lookup credentials.
type Config struct {
	APIKey  string
	BaseURL string
}

// Client queries the place text-search API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ services.PlaceLookup = (*Client)(nil)

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

// New creates a place-lookup client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("place api key required")
	}
	if cfg.BaseURL = strings.TrimSpace(cfg.BaseURL); cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
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

type textSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name             string `json:"name"`
		Website          string `json:"website"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

// FindPlace issues one text search. ZERO_RESULTS returns an empty slice
// with a nil error.
func (c *Client) FindPlace(ctx context.Context, query string) ([]services.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("place: query required")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.cfg.APIKey)
	params.Set("fields", "name,website,formatted_address")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("place: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &resilience.RetriableError{Reason: "place: read body", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, &resilience.RetriableError{Reason: "place: transient failure", Err: fmt.Errorf("place: http %d", resp.StatusCode)}
		}
		return nil, fmt.Errorf("place: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed textSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &resilience.MalformedPayloadError{Op: "place", Err: err}
	}
	switch parsed.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	case "OVER_QUERY_LIMIT":
		return nil, &resilience.RetriableError{Reason: "place: over query limit", Err: fmt.Errorf("place: status %s", parsed.Status)}
	case "REQUEST_DENIED":
		return nil, &resilience.QuotaError{Reason: "place: request denied", Err: fmt.Errorf("place: status %s", parsed.Status)}
	default:
		return nil, fmt.Errorf("place: status %s", parsed.Status)
	}

	places := make([]services.Place, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		places = append(places, services.Place{
			Name:             r.Name,
			Website:          r.Website,
			FormattedAddress: r.FormattedAddress,
		})
	}
	return places, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &resilience.RetriableError{Reason: "place: timeout", Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &resilience.RetriableError{Reason: "place: transport failure", Err: err}
	}
	return fmt.Errorf("place: %w", err)
}
