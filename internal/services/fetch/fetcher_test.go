package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"merchlens/internal/resilience"
)

func TestFetchReturnsPageText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>Acme Coffee — open daily</body></html>"))
	}))
	defer server.Close()

	fetcher := New(Config{})
	text, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if !strings.Contains(text, "Acme Coffee") {
		t.Fatalf("unexpected page text %q", text)
	}
}

func TestFetchDefaultsScheme(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher := New(Config{})
	bare := strings.TrimPrefix(server.URL, "http://")
	if _, err := fetcher.Fetch(context.Background(), bare); err != nil {
		t.Fatalf("scheme-less URL should be fetched: %v", err)
	}
}

func TestFetchNonTextContentReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{0x00, 0x01})
	}))
	defer server.Close()

	fetcher := New(Config{})
	text, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("binary content should not error: %v", err)
	}
	if text != "" {
		t.Fatalf("binary content should yield empty text, got %q", text)
	}
}

func TestFetchHTTPErrorRetriable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := New(Config{})
	_, err := fetcher.Fetch(context.Background(), server.URL)
	if !resilience.IsRetriable(err) {
		t.Fatalf("HTTP error should be classified retriable, got %v", err)
	}
}

func TestFetchCapsBodySize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer server.Close()

	fetcher := New(Config{MaxBodyBytes: 100})
	text, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(text) != 100 {
		t.Fatalf("body should be capped at 100 bytes, got %d", len(text))
	}
}
