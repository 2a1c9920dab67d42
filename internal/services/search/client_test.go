package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"merchlens/internal/resilience"
)

func TestSearchParsesItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "acme coffee austin" {
			t.Fatalf("unexpected query %q", got)
		}
		if r.URL.Query().Get("cx") == "" || r.URL.Query().Get("key") == "" {
			t.Fatal("credentials missing from request")
		}
		_, _ = w.Write([]byte(`{"items":[
			{"title":"Acme Coffee","link":"https://acmecoffee.example","snippet":"Espresso bar in Austin"},
			{"title":"Acme on Yelp","link":"https://yelp.example/acme","snippet":"Reviews"}
		]}`))
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "k", EngineID: "cx", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	results, err := client.Search(context.Background(), "acme coffee austin")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 2 || results[0].Link != "https://acmecoffee.example" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestSearchEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "k", EngineID: "cx", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	results, err := client.Search(context.Background(), "no such merchant")
	if err != nil {
		t.Fatalf("empty result set should not error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
}

func TestSearchQuotaTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"Quota exceeded for queries per day"}}`))
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "k", EngineID: "cx", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Search(context.Background(), "acme")
	if !resilience.IsQuota(err) {
		t.Fatalf("daily quota should be terminal, got %v", err)
	}
}

func TestSearchServerErrorRetriable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "k", EngineID: "cx", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Search(context.Background(), "acme")
	if !resilience.IsRetriable(err) {
		t.Fatalf("503 should be retriable, got %v", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(Config{EngineID: "cx"}); err == nil {
		t.Fatal("missing api key should error")
	}
	if _, err := New(Config{APIKey: "k"}); err == nil {
		t.Fatal("missing engine id should error")
	}
}
