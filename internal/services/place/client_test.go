package place

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"merchlens/internal/resilience"
)

func TestFindPlaceParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "acme coffee austin" {
			t.Fatalf("unexpected query %q", got)
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"name":"Acme Coffee","website":"https://acmecoffee.example","formatted_address":"1 Main St, Austin"}
		]}`))
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	places, err := client.FindPlace(context.Background(), "acme coffee austin")
	if err != nil {
		t.Fatalf("FindPlace returned error: %v", err)
	}
	if len(places) != 1 || places[0].Website != "https://acmecoffee.example" {
		t.Fatalf("unexpected places: %+v", places)
	}
}

func TestFindPlaceZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	places, err := client.FindPlace(context.Background(), "nothing here")
	if err != nil || places != nil {
		t.Fatalf("expected nil, nil; got %v, %v", places, err)
	}
}

func TestFindPlaceOverQueryLimitRetriable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT"}`))
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.FindPlace(context.Background(), "acme")
	if !resilience.IsRetriable(err) {
		t.Fatalf("OVER_QUERY_LIMIT should be retriable, got %v", err)
	}
}

func TestFindPlaceRequestDeniedTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED"}`))
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.FindPlace(context.Background(), "acme")
	if !resilience.IsQuota(err) {
		t.Fatalf("REQUEST_DENIED should be terminal, got %v", err)
	}
}
