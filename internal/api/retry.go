package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tinybird-go/tinybird-go/internal/apierrors"
)

// RetryConfig configures retry behavior for failed HTTP requests.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay seeds the backoff. The first wait is BaseDelay * Multiplier.
	BaseDelay time.Duration
	// Multiplier is the factor by which the delay grows after each attempt.
	Multiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxRetries,
		BaseDelay:   DefaultRetryDelay,
		Multiplier:  DefaultBackoffMultiplier,
	}
}

// CanRetry reports whether another attempt may follow attempt (zero based).
func (r RetryConfig) CanRetry(attempt int) bool {
	return attempt < r.MaxAttempts-1
}

// ShouldRetry determines if a response with statusCode should be retried.
func (r RetryConfig) ShouldRetry(attempt int, statusCode int) bool {
	return r.CanRetry(attempt) && apierrors.IsRetryableStatus(statusCode)
}

// backoff is the delay state of one logical call.
type backoff struct {
	delay      time.Duration
	multiplier float64
}

func (r RetryConfig) newBackoff() *backoff {
	return &backoff{delay: r.BaseDelay, multiplier: r.Multiplier}
}

// next advances the delay and returns it. A positive Retry-After header on
// the failed response takes precedence over the multiplier.
func (b *backoff) next(header http.Header) time.Duration {
	if seconds, ok := apierrors.RetryAfter(header); ok {
		b.delay = time.Duration(seconds) * time.Second
	} else {
		b.delay = time.Duration(float64(b.delay) * b.multiplier)
	}
	return b.delay
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
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
