// Package retry provides exponential backoff with jitter for outbound
// provider calls.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// MaxJitter is the upper bound of the random jitter added to every computed
// delay. Jitter prevents synchronized retry storms when many tenants are
// throttled at once.
const MaxJitter = 250 * time.Millisecond

// Policy bounds a retry loop. Attempts are zero-based for the exponent, so
// the first retry waits BaseDelay and the cap applies before jitter: total
// sleep never exceeds MaxDelay + MaxJitter.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the computed delay (before jitter).
	MaxDelay time.Duration
}

// DefaultPolicy returns the retry policy used when a tenant has none
// configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 5,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   30 * time.Second,
	}
}

// Delay computes the backoff for a zero-based attempt number:
// min(MaxDelay, BaseDelay * 2^attempt), without jitter.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := p.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	max := p.MaxDelay
	if max <= 0 {
		max = 30 * time.Second
	}

	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		delay = max
	}
	return delay
}

// DelayWithJitter returns Delay(attempt) plus a random jitter in
// [0, MaxJitter).
func (p Policy) DelayWithJitter(attempt int) time.Duration {
	jitter := time.Duration(rand.Int63n(int64(MaxJitter))) // #nosec G404 -- jitter does not require cryptographic randomness
	return p.Delay(attempt) + jitter
}

// Sleep waits for the given duration or until the context is done, whichever
// comes first. Returns the context error on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
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

// PermanentError marks an error that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps an error to indicate it should not be retried.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent checks whether an error was marked permanent.
func IsPermanent(err error) bool {
	var permanent *PermanentError
	return errors.As(err, &permanent)
}
