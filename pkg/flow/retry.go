package flow

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryAsync returns a runner that calls fn up to maxAttempts times in total,
// stopping at the first success. The last error is returned when every
// attempt fails. There is no delay between attempts; use WithRetry for
// backoff. A maxAttempts below 1 means a single attempt.
func RetryAsync[A, R any](maxAttempts int) func(ctx context.Context, args A, fn func(context.Context, A) (R, error)) (R, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var attempt func(ctx context.Context, args A, fn func(context.Context, A) (R, error), count int) (R, error)
	attempt = func(ctx context.Context, args A, fn func(context.Context, A) (R, error), count int) (R, error) {
		r, err := fn(ctx, args)
		if err == nil {
			return r, nil
		}
		if count >= maxAttempts || ctx.Err() != nil {
			return r, err
		}
		return attempt(ctx, args, fn, count+1)
	}

	return func(ctx context.Context, args A, fn func(context.Context, A) (R, error)) (R, error) {
		return attempt(ctx, args, fn, 1)
	}
}

// RetryConfig configures WithRetry
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts" mapstructure:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay" mapstructure:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor" mapstructure:"backoff_factor"`
	JitterEnabled bool          `json:"jitter_enabled" mapstructure:"jitter_enabled"`

	// ShouldRetry decides whether an error is worth another attempt.
	// Nil means IsRetryable.
	ShouldRetry func(error) bool `json:"-" mapstructure:"-"`
}

// DefaultRetryConfig returns the configuration used by the platform clients
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Retryable is implemented by errors that know whether a retry can help
type Retryable interface {
	Retryable() bool
}

// IsRetryable reports whether err should be retried. Errors implementing
// Retryable decide for themselves; context errors never retry; anything
// else does.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// RetryableOperation is an operation run by WithRetry
type RetryableOperation func(ctx context.Context) error

// WithRetry executes op with exponential backoff between attempts
func WithRetry(ctx context.Context, config *RetryConfig, op RetryableOperation) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	shouldRetry := config.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsRetryable
	}

	var lastErr error

	for attempt := 1; attempt <= max(config.MaxAttempts, 1); attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt >= config.MaxAttempts || !shouldRetry(err) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.calculateDelay(attempt)):
		}
	}

	return lastErr
}

// Do is WithRetry for operations that produce a value
func Do[T any](ctx context.Context, config *RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := WithRetry(ctx, config, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// calculateDelay returns initial_delay * backoff_factor^(attempt-1), capped
// at MaxDelay, plus up to 10% jitter
func (c *RetryConfig) calculateDelay(attempt int) time.Duration {
	factor := c.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	delay := float64(c.InitialDelay) * math.Pow(factor, float64(attempt-1))

	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.JitterEnabled {
		delay += rand.Float64() * 0.1 * delay
	}

	return time.Duration(delay)
}
