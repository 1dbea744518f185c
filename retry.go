package docdex

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy configures bounded retry with exponential backoff.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the delay after the first failed attempt; each further
	// attempt doubles it up to MaxDelay.
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay. Zero means no cap.
	MaxDelay time.Duration

	// Jitter, in [0, 1], randomizes each delay by up to +/- Jitter fraction.
	Jitter float64
}

// DefaultRetryPolicy returns the policy applied to store writes and
// store-backed queries: 3 attempts, 500ms base delay, 8s cap, 20% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		Jitter:      0.2,
	}
}

// Retryable reports whether an error is worth retrying. Validation errors
// cannot succeed on retry, and quota exhaustion only gets worse.
func Retryable(err error) bool {
	switch ErrorCode(err) {
	case EINVALID, ENOTFOUND, EQUOTA:
		return false
	}
	return true
}

// Retry invokes fn until it succeeds, returns a non-retryable error, or the
// policy's attempts are exhausted. Sleeps between attempts are blocking but
// context-aware; a canceled context returns ctx.Err immediately.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}

	var lastErr error
	delay := policy.BaseDelay
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}
		if attempt >= policy.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered(delay, policy.Jitter)):
		}

		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	return lastErr
}

func jittered(d time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return d
	}
	spread := float64(d) * jitter
	return d + time.Duration((rand.Float64()*2-1)*spread)
}
