// Package fetch implements the website-fetch port with plain HTTP.
package fetch

import (
	"context"
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
	defaultTimeout     = 10 * time.Second
	defaultMaxBodySize = 512 * 1024
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Config tunes the fetcher.
type Config struct {
	TimeoutSeconds int
	MaxBodyBytes   int64
	UserAgent      string
}

// Fetcher retrieves page text for website verification.
type Fetcher struct {
	cfg        Config
	httpClient *http.Client
}

var _ services.Fetch = (*Fetcher)(nil)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// New creates a Fetcher.
func New(cfg Config, opts ...Option) *Fetcher {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodySize
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	f := &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the text content of a page. Non-text content types return
// an empty string with a nil error; timeouts and HTTP failures are
// classified retriable so the resilience layer can have another go.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return "", errors.New("fetch: url required")
	}
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		pageURL = "http://" + pageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch: new request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", &resilience.RetriableError{
			Reason: "fetch: http failure",
			Err:    fmt.Errorf("fetch %s: http %d", pageURL, resp.StatusCode),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text") && !strings.Contains(contentType, "html") {
		// Binary payloads carry no verifiable page text.
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return "", &resilience.RetriableError{Reason: "fetch: read body", Err: err}
	}
	return string(body), nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &resilience.RetriableError{Reason: "fetch: timeout", Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &resilience.RetriableError{Reason: "fetch: transport failure", Err: err}
	}
	return fmt.Errorf("fetch: %w", err)
}
