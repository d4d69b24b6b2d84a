package ai

import (
	"context"
	"time"

	"intervie-backend/internal/shared/telemetry"
)

// RetryOptions controls the retry wrapper shared by all providers.
type RetryOptions struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// DefaultRetryOptions matches the provider policy: three attempts, each
// bounded by a 30 second timeout, linear backoff on a one second base.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries: 3,
		RetryDelay: time.Second,
		Timeout:    30 * time.Second,
	}
}

func (o RetryOptions) normalized() RetryOptions {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

// Retryer executes provider operations with per-attempt timeouts and
// linear backoff between attempts. It holds no locks while waiting.
type Retryer struct {
	Provider string
	Options  RetryOptions
}

// Do runs fn up to MaxRetries times. Each attempt gets its own deadline;
// an attempt that outlives it is abandoned and counted as failed. The
// final error wraps the last failure with the operation name and count.
func (r Retryer) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	opts := r.Options.normalized()
	var lastErr error

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			if attempt > 1 {
				telemetry.Info("ai.retry.recovered", map[string]any{
					"provider":  r.Provider,
					"operation": operation,
					"attempt":   attempt,
				})
			}
			return nil
		}
		lastErr = err

		telemetry.Warn("ai.attempt.failed", map[string]any{
			"provider":    r.Provider,
			"operation":   operation,
			"attempt":     attempt,
			"max_retries": opts.MaxRetries,
			"error":       err.Error(),
		})

		if attempt == opts.MaxRetries {
			break
		}
		// Linear backoff: delay grows with the attempt number.
		select {
		case <-time.After(opts.RetryDelay * time.Duration(attempt)):
		case <-ctx.Done():
			return &ProviderError{Provider: r.Provider, Operation: operation, Attempts: attempt, Err: ctx.Err()}
		}
	}

	return &ProviderError{Provider: r.Provider, Operation: operation, Attempts: opts.MaxRetries, Err: lastErr}
}
