package api

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/nsgifts/client-go/internal/apierrors"
)

// Default retry parameters.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 30 * time.Second
	DefaultJitter      = 0.2
)

// RetryConfig configures retry behavior for failed calls.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration
	// MaxDelay caps the delay between attempts, before jitter.
	MaxDelay time.Duration
	// Jitter is the randomization factor (0.0 to 1.0) applied to delays
	// to prevent thundering herd. A delay d becomes a value in [d-d*J, d+d*J].
	Jitter float64

	// random returns a float in [0, 1). Tests replace it.
	random func() float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Jitter:      DefaultJitter,
	}
}

// ShouldRetry reports whether a call that just failed on attempt n
// (starting at 1) with an error of the given kind gets another attempt.
func (r *RetryConfig) ShouldRetry(attempt int, kind apierrors.Kind) bool {
	if attempt >= r.MaxAttempts {
		return false
	}
	return kind.Retryable()
}

// BaseDelayFor returns min(MaxDelay, BaseDelay * 2^(attempt-1)) without jitter.
func (r *RetryConfig) BaseDelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(r.BaseDelay) * math.Pow(2, float64(attempt-1))
	if r.MaxDelay > 0 && delay > float64(r.MaxDelay) {
		delay = float64(r.MaxDelay)
	}
	return time.Duration(delay)
}

// Delay calculates the delay after attempt n with optional jitter.
func (r *RetryConfig) Delay(attempt int) time.Duration {
	delay := float64(r.BaseDelayFor(attempt))

	if r.Jitter > 0 {
		random := r.random
		if random == nil {
			random = rand.Float64
		}
		jitterAmount := delay * min(r.Jitter, 1)
		delay = delay - jitterAmount + (random() * 2 * jitterAmount)
	}

	return time.Duration(delay)
}

// Wait waits for the appropriate delay before retrying.
func (r *RetryConfig) Wait(ctx context.Context, attempt int) error {
	return Sleep(ctx, r.Delay(attempt))
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
