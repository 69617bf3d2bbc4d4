// Package retry runs fallible operations with bounded attempts and
// exponential backoff.
//
// The delay before attempt n+1 is BaseDelay * 2^(n-1): with the defaults the
// schedule is 1s then 2s, after which the third failure is returned. No jitter
// is applied, so the schedule is fully deterministic.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Defaults used when a Policy field is left zero.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1000 * time.Millisecond
)

// ErrExhausted is matched by errors.Is on every ExhaustedError.
var ErrExhausted = errors.New("retry attempts exhausted")

// ExhaustedError is returned when every attempt failed. It wraps both
// ErrExhausted and the last underlying failure.
type ExhaustedError struct {
	Attempts int
	Last     error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %v", ErrExhausted.Error(), e.Attempts, e.Last)
}

// Unwrap exposes ErrExhausted and the last failure to errors.Is and errors.As.
func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrExhausted, e.Last}
}

// Policy bounds the attempts made by Do.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the wait after the first failure; each later wait doubles it.
	BaseDelay time.Duration

	// OnRetry, if set, is called before every wait with the 1-indexed attempt
	// that just failed, its error and the upcoming delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	return p
}

// Delay returns the wait that follows the given 1-indexed failed attempt.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt-1)))
}

// newBackOff builds a jitter-free doubling schedule that allows
// MaxAttempts-1 retries.
func (p Policy) newBackOff(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = time.Duration(math.MaxInt64)
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.MaxAttempts-1)), ctx)
}

// Permanent marks err as not worth retrying. Do stops immediately and reports
// the wrapped error as the last failure.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds or the policy is exhausted. The backoff wait is
// a timer select and honours ctx cancellation; the operation itself receives
// ctx and is expected to honour it too.
//
// On failure the returned error is an *ExhaustedError carrying the last
// failure, unless ctx ended before any attempt completed.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var (
		attempts int
		lastErr  error
	)

	operation := func() (T, error) {
		attempts++
		v, err := op(ctx)
		if err != nil {
			var permanent *backoff.PermanentError
			if errors.As(err, &permanent) {
				lastErr = permanent.Err
			} else {
				lastErr = err
			}
		}
		return v, err
	}

	notify := func(err error, delay time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempts, err, delay)
		}
	}

	v, err := backoff.RetryNotifyWithData(operation, p.newBackOff(ctx), notify)
	if err == nil {
		return v, nil
	}

	var zero T
	if lastErr == nil {
		return zero, err
	}
	return zero, &ExhaustedError{Attempts: attempts, Last: lastErr}
}
