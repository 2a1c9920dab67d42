package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestRetriableFailuresThenSuccess(t *testing.T) {
	r := New(Policy{MaxRetries: 3, InitialDelay: time.Millisecond, BackoffFactor: 2}, WithSleeper(noSleep))

	calls := 0
	value, err := DoValue(context.Background(), r, "search", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &RetriableError{Reason: "rate limited"}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if value != "ok" {
		t.Fatalf("value = %q", value)
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 invocations, got %d", calls)
	}
}

func TestQuotaErrorNotRetried(t *testing.T) {
	r := New(DefaultPolicy(), WithSleeper(noSleep))

	calls := 0
	err := r.Do(context.Background(), "search", func(context.Context) error {
		calls++
		return &QuotaError{Reason: "daily quota exhausted"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("quota error should be invoked exactly once, got %d", calls)
	}
	if !IsQuota(err) {
		t.Fatalf("classification lost through return: %v", err)
	}
}

func TestUnclassifiedErrorNotRetried(t *testing.T) {
	r := New(DefaultPolicy(), WithSleeper(noSleep))

	calls := 0
	sentinel := errors.New("boom")
	err := r.Do(context.Background(), "fetch", func(context.Context) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("unclassified error should be invoked exactly once, got %d", calls)
	}
}

func TestRetriesExhausted(t *testing.T) {
	r := New(Policy{MaxRetries: 2, InitialDelay: time.Millisecond, BackoffFactor: 2}, WithSleeper(noSleep))

	calls := 0
	err := r.Do(context.Background(), "search", func(context.Context) error {
		calls++
		return &RetriableError{Reason: "unavailable"}
	})
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	if calls != 3 {
		t.Fatalf("expected 1 try + 2 retries = 3 invocations, got %d", calls)
	}
	if !IsRetriable(err) {
		t.Fatalf("wrapped error should keep classification: %v", err)
	}
}

func TestMalformedPayloadRetriedOnce(t *testing.T) {
	r := New(Policy{MaxRetries: 5, InitialDelay: time.Millisecond, BackoffFactor: 2}, WithSleeper(noSleep))

	calls := 0
	err := r.Do(context.Background(), "extract", func(context.Context) error {
		calls++
		return &MalformedPayloadError{Op: "extract", Err: errors.New("not json")}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Fatalf("malformed payload retries once regardless of budget, got %d invocations", calls)
	}
	if !IsMalformed(err) {
		t.Fatalf("classification lost: %v", err)
	}
}

func TestRetryAfterOverridesBackoff(t *testing.T) {
	var slept []time.Duration
	r := New(
		Policy{MaxRetries: 1, InitialDelay: time.Second, BackoffFactor: 2},
		WithSleeper(func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}),
	)

	_ = r.Do(context.Background(), "llm", func(context.Context) error {
		return &RetriableError{Reason: "rate limited", RetryAfter: 7 * time.Second}
	})
	if len(slept) != 1 || slept[0] != 7*time.Second {
		t.Fatalf("expected single 7s sleep from Retry-After, got %v", slept)
	}
}

func TestContextCancellationStopsRetry(t *testing.T) {
	r := New(DefaultPolicy(), WithSleeper(noSleep))
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := r.Do(ctx, "search", func(context.Context) error {
		calls++
		cancel()
		return &RetriableError{Reason: "unavailable"}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single invocation before cancellation, got %d", calls)
	}
}
