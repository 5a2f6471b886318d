// Package http builds HTTP clients with transparent retries. It wraps
// hashicorp's retryablehttp.Client and exposes functional options for the
// timeout and retry windows.
package http

import (
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// config holds the client settings.
type config struct {
	timeout      time.Duration // per-request deadline
	retryWaitMin time.Duration // minimum wait between retries
	retryWaitMax time.Duration // maximum wait between retries
	retryMax     int           // retry attempts after the initial request
}

// Option customizes the client built by NewClient.
type Option func(*config)

// NewClient returns a retryablehttp.Client with its internal logger
// disabled. Defaults: 10s timeout, 1s-5s retry window, 2 retries.
func NewClient(opts ...Option) *retryablehttp.Client {
	cfg := config{
		timeout:      10 * time.Second,
		retryWaitMin: 1 * time.Second,
		retryWaitMax: 5 * time.Second,
		retryMax:     2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := retryablehttp.NewClient()
	client.Logger = nil
	client.HTTPClient.Timeout = cfg.timeout
	client.RetryWaitMin = cfg.retryWaitMin
	client.RetryWaitMax = cfg.retryWaitMax
	client.RetryMax = cfg.retryMax
	return client
}

// WithTimeout sets the deadline for a single HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithRetryWaitMin sets the minimum delay between retry attempts.
func WithRetryWaitMin(d time.Duration) Option {
	return func(c *config) {
		c.retryWaitMin = d
	}
}

// WithRetryWaitMax sets the maximum delay between retry attempts.
func WithRetryWaitMax(d time.Duration) Option {
	return func(c *config) {
		c.retryWaitMax = d
	}
}

// WithRetryMax sets how many times a failed request is retried.
func WithRetryMax(n int) Option {
	return func(c *config) {
		c.retryMax = n
	}
}
