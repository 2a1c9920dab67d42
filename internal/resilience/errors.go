package resilience

import (
	"errors"
	"fmt"
	"time"
)

// RetriableError marks a transient capability failure worth retrying, such
// as a rate limit or a temporarily unavailable service. RetryAfter, when
// positive, overrides the computed backoff for the next attempt.
type RetriableError struct {
	Reason     string
	RetryAfter time.Duration
	Err        error
}

func (e *RetriableError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	if e.Reason == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *RetriableError) Unwrap() error { return e.Err }

// QuotaError marks permanent quota exhaustion. It is terminal for the
// current call and never retried.
type QuotaError struct {
	Reason string
	Err    error
}

func (e *QuotaError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	if e.Reason == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *QuotaError) Unwrap() error { return e.Err }

// MalformedPayloadError marks a response that failed strict parsing or
// schema validation. It earns a single retry regardless of the configured
// budget; a model that answered garbage twice will not improve on a third
// ask within the same request.
type MalformedPayloadError struct {
	Op  string
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("%s: malformed payload: %v", e.Op, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// IsRetriable reports whether err is classified as transient.
func IsRetriable(err error) bool {
	var r *RetriableError
	return errors.As(err, &r)
}

// IsQuota reports whether err is classified as permanent quota exhaustion.
func IsQuota(err error) bool {
	var q *QuotaError
	return errors.As(err, &q)
}

// IsMalformed reports whether err is a malformed-payload classification.
func IsMalformed(err error) bool {
	var m *MalformedPayloadError
	return errors.As(err, &m)
}
