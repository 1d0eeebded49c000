package llm

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// RetryConfig bounds the backoff loop applied to transient provider failures.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig matches the provider rate limit windows we see in practice.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		MaxDelay:    2 * time.Minute,
	}
}

// RetryingProvider wraps a Provider with jittered exponential backoff on
// transient failures. Non-transient failures (bad request, auth) are returned
// immediately. Once attempts are exhausted the error is surfaced as a
// GenerationError.
type RetryingProvider struct {
	provider Provider
	cfg      RetryConfig
}

// WithRetry decorates the given provider with the retry policy.
func WithRetry(provider Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}
	return &RetryingProvider{provider: provider, cfg: cfg}
}

func (r *RetryingProvider) Name() string {
	return r.provider.Name()
}

func (r *RetryingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	delay := r.cfg.BaseDelay

	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		resp, err := r.provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return nil, &GenerationError{Provider: r.provider.Name(), Op: "completion", Err: err}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(Jitter(delay)):
			delay *= 2
			if delay > r.cfg.MaxDelay {
				delay = r.cfg.MaxDelay
			}
		}
	}

	return nil, &GenerationError{Provider: r.provider.Name(), Op: "completion", Err: lastErr}
}

// IsTransient reports whether an error belongs to a failure class worth
// retrying: rate limiting, connection/timeout trouble, or a transient
// server-side error. Everything else fails immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate_limit", "rate limit", "429", "too many requests",
		"overloaded", "connection refused", "connection reset",
		"timeout", "timed out", "502", "503", "504",
		"bad gateway", "service unavailable",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Jitter spreads a delay uniformly over [delay/2, delay) so concurrent
// clients do not retry in lockstep.
func Jitter(delay time.Duration) time.Duration {
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}
