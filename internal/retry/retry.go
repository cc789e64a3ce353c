// Package retry implements exponential backoff for provider calls. Failures
// are permanent unless the caller marked them transient, so misconfiguration
// and auth errors fail fast while rate limits and outages get re-attempted.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// RetryConfig configures retry behavior for provider calls.
type RetryConfig struct {
	MaxRetries   int           // Maximum number of retry attempts (0 = no retries)
	InitialDelay time.Duration // Delay before the first retry
	MaxDelay     time.Duration // Cap on the backoff delay
	Multiplier   float64       // Backoff multiplier (e.g., 2.0 for exponential)
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth retrying. Providers tag rate limits, 5xx
// responses, and transport failures with it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err carries a transient mark. Context
// cancellation is never transient, even when a provider wrapped it.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *transientError
	return errors.As(err, &te)
}

// Delay computes the backoff for a given attempt using exponential growth
// capped at MaxDelay.
func (rc RetryConfig) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return rc.InitialDelay
	}

	delay := float64(rc.InitialDelay) * math.Pow(rc.Multiplier, float64(attempt))
	if time.Duration(delay) > rc.MaxDelay {
		return rc.MaxDelay
	}
	return time.Duration(delay)
}

// WithRetry runs fn until it succeeds, fails permanently, or exhausts the
// configured attempts.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("context cancelled: %w", err)
		}

		result, lastErr = fn()
		if lastErr == nil {
			if attempt > 0 {
				slog.Info("operation succeeded after retry", "attempt", attempt)
			}
			return result, nil
		}

		if !IsTransient(lastErr) {
			return result, lastErr
		}

		if attempt >= cfg.MaxRetries {
			break
		}

		delay := cfg.Delay(attempt)
		slog.Warn("operation failed, retrying",
			"attempt", attempt+1,
			"max_retries", cfg.MaxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return result, fmt.Errorf("context cancelled during retry backoff: %w", ctx.Err())
		}
	}

	return result, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}
