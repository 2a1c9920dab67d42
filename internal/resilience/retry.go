package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"merchlens/internal/logging"
)

const (
	defaultMaxRetries    = 3
	defaultInitialDelay  = 2 * time.Second
	defaultBackoffFactor = 2.0
	malformedRetryBudget = 1
)

// Policy configures the retry behavior applied to a wrapped call.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// InitialDelay is the backoff before the first retry.
	InitialDelay time.Duration
	// BackoffFactor multiplies the delay after every retriable failure.
	BackoffFactor float64
	// Jitter adds up to one extra second of random delay per sleep to
	// spread retries from parallel jobs apart.
	Jitter bool
}

// DefaultPolicy mirrors the settings every capability port ships with.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:    defaultMaxRetries,
		InitialDelay:  defaultInitialDelay,
		BackoffFactor: defaultBackoffFactor,
		Jitter:        true,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = defaultInitialDelay
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = defaultBackoffFactor
	}
	return p
}

// Retrier executes functions under a Policy.
type Retrier struct {
	policy Policy
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
	jitter func() time.Duration
}

// Option customizes a Retrier.
type Option func(*Retrier)

// WithSleeper overrides how backoff sleeps are performed (used in tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(r *Retrier) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// WithLogger attaches a logger for retry warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retrier) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New constructs a Retrier with the supplied policy.
func New(policy Policy, opts ...Option) *Retrier {
	r := &Retrier{
		policy: policy.normalized(),
		logger: logging.NewNop(),
		sleep:  sleepWithContext,
	}
	r.jitter = func() time.Duration {
		if !r.policy.Jitter {
			return 0
		}
		return time.Duration(rand.Float64() * float64(time.Second))
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs fn, retrying per the policy. Retriable errors sleep and retry up
// to the budget; malformed payloads retry once; everything else returns
// immediately.
func (r *Retrier) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	_, err := DoValue(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for functions that produce a value.
func DoValue[T any](ctx context.Context, r *Retrier, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		return zero, errors.New("resilience: nil context")
	}

	delay := r.policy.InitialDelay
	malformedRetries := 0
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err

		var wait time.Duration
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return zero, err
		case IsMalformed(err):
			if malformedRetries >= malformedRetryBudget {
				return zero, err
			}
			malformedRetries++
			wait = delay
		case IsRetriable(err):
			if attempt >= r.policy.MaxRetries {
				return zero, fmt.Errorf("%s: retries exhausted after %d attempts: %w", op, attempt+1, lastErr)
			}
			wait = delay
			var retriable *RetriableError
			if errors.As(err, &retriable) && retriable.RetryAfter > 0 {
				wait = retriable.RetryAfter
			}
			delay = time.Duration(float64(delay) * r.policy.BackoffFactor)
		default:
			// Quota exhaustion and unclassified failures are terminal.
			return zero, err
		}

		wait += r.jitter()
		r.logger.Warn("capability call failed, retrying",
			logging.String("op", op),
			logging.Int("attempt", attempt+1),
			logging.Duration("delay", wait),
			logging.Error(err),
		)
		if err := r.sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
