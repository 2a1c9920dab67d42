package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"merchlens/internal/config"
)

func TestNoopWhenUnconfigured(t *testing.T) {
	svc := NewService(config.Notifications{})
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("empty topic should yield the noop service, got %T", svc)
	}
	if err := svc.NotifyJobFailed(context.Background(), "in.xlsx", "boom"); err != nil {
		t.Fatalf("noop should never error: %v", err)
	}
}

func TestNtfyHeadersAndBody(t *testing.T) {
	var gotTitle, gotTags, gotPriority, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		gotPriority = r.Header.Get("Priority")
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
	}))
	defer server.Close()

	svc := NewService(config.Notifications{NtfyTopic: server.URL, RequestTimeout: 5})
	if err := svc.NotifyJobFailed(context.Background(), "merchants.xlsx", "output write failed"); err != nil {
		t.Fatalf("NotifyJobFailed returned error: %v", err)
	}

	if gotTitle != "MerchLens - Job Failed" {
		t.Fatalf("title %q", gotTitle)
	}
	if !strings.Contains(gotTags, "error") {
		t.Fatalf("tags %q", gotTags)
	}
	if gotPriority != "high" {
		t.Fatalf("priority %q", gotPriority)
	}
	if !strings.Contains(gotBody, "output write failed") {
		t.Fatalf("body %q", gotBody)
	}
}

func TestNtfyErrorStatusSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	svc := NewService(config.Notifications{NtfyTopic: server.URL})
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("4xx response should surface as an error")
	}
}
