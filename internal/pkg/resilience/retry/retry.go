// Package retry provides a configurable retry mechanism for operations that
// may fail temporarily. It wraps avast/retry-go behind a narrow interface
// with functional options, using exponential backoff between attempts.
package retry

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// Retry executes operations with automatic retry on failure.
type Retry interface {
	// Execute runs operation with the configured retry policy. The operation
	// should be idempotent. Execution stops early when ctx is canceled, in
	// which case the context error is returned.
	Execute(ctx context.Context, operation func() error) error
}

// config holds the tunable retry settings.
type config struct {
	attempts    uint          // maximum number of attempts, including the first
	delay       time.Duration // base delay before the first retry
	maxDelay    time.Duration // upper bound for the backoff delay
	lastErrOnly bool          // return only the final error instead of all of them
}

// Option customizes the retry policy built by New.
type Option func(*config)

type retrier struct {
	cfg config
}

var _ Retry = (*retrier)(nil)

// New builds a Retry with the given options. Without options the policy is
// 3 attempts, 1s base delay, 5s max delay, exponential backoff, and only the
// last error returned.
func New(opts ...Option) Retry {
	cfg := config{
		attempts:    3,
		delay:       1 * time.Second,
		maxDelay:    5 * time.Second,
		lastErrOnly: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &retrier{
		cfg: cfg,
	}
}

// Execute implements the Retry interface.
func (r *retrier) Execute(ctx context.Context, operation func() error) error {
	options := []retry.Option{
		retry.Attempts(r.cfg.attempts),
		retry.Delay(r.cfg.delay),
		retry.MaxDelay(r.cfg.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(r.cfg.lastErrOnly),
		retry.Context(ctx),
	}

	return retry.Do(operation, options...)
}

// WithAttempts sets the maximum number of attempts, including the initial one.
func WithAttempts(n uint) Option {
	return func(c *config) {
		c.attempts = n
	}
}

// WithDelay sets the base delay used before the first retry. Subsequent
// delays grow exponentially up to the configured maximum.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

// WithMaxDelay caps the exponential backoff delay between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = d
	}
}

// WithLastErrorOnly controls whether Execute returns only the error from the
// final attempt (true) or all attempt errors combined (false).
func WithLastErrorOnly(b bool) Option {
	return func(c *config) {
		c.lastErrOnly = b
	}
}
