package fetcher

import (
	"context"
	crand "crypto/rand"
	"errors"
	"time"

	"github.com/project-tktt/review-crawler/internal/observability"
)

// RetryPolicy wraps fetch attempts with bounded retries and a capped
// exponential delay. Only transient failures (FetchError) are
// retried; anything else is structural and retrying will not change
// the outcome.
type RetryPolicy struct {
	// MaxAttempts is the total attempt budget including the first.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the pacing the sources tolerate.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 4, BaseDelay: 500 * time.Millisecond, MaxDelay: 15 * time.Second}
}

// Do runs fn until it succeeds, fails structurally, or the attempt
// budget is exhausted. The final failure is returned, never swallowed.
func (p RetryPolicy) Do(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		payload, err := fn()
		if err == nil {
			return payload, nil
		}

		var fe *FetchError
		if !errors.As(err, &fe) {
			return nil, err // structural, not retryable
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		observability.FetchRetries.WithLabelValues(string(fe.Kind)).Inc()

		// Prefer the server-provided wait hint over our own backoff.
		wait := fe.RetryAfter
		if wait == 0 {
			wait = p.backoff(i)
		}
		if !sleepCtx(ctx, wait) {
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// backoff doubles per attempt from BaseDelay with up to +50% jitter,
// capped at MaxDelay.
func (p RetryPolicy) backoff(i int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	d := base << uint(i)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}

	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return d
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(d))
	return d + j
}

// sleepCtx waits for d or returns false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
