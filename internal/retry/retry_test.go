package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky upstream")

func TestPolicy_Delay(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 400*time.Millisecond, p.Delay(3))
	assert.Equal(t, 100*time.Millisecond, p.Delay(0))

	assert.Equal(t, DefaultBaseDelay, Policy{}.Delay(1))
}

func TestDo_SucceedsFirstTime(t *testing.T) {
	var calls atomic.Int32

	v, err := Do(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_FailsTwiceThenSucceeds(t *testing.T) {
	const base = 20 * time.Millisecond

	var (
		calls  int
		delays []time.Duration
		starts []time.Time
	)
	policy := Policy{
		MaxAttempts: 3,
		BaseDelay:   base,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			assert.ErrorIs(t, err, errFlaky)
			delays = append(delays, delay)
		},
	}

	v, err := Do(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		starts = append(starts, time.Now())
		if calls < 3 {
			return 0, errFlaky
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{base, 2 * base}, delays)

	require.Len(t, starts, 3)
	assert.GreaterOrEqual(t, starts[1].Sub(starts[0]), base)
	assert.GreaterOrEqual(t, starts[2].Sub(starts[1]), 2*base)
}

func TestDo_Exhausted(t *testing.T) {
	var calls atomic.Int32

	_, err := Do(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) (string, error) {
		n := calls.Add(1)
		return "", errors.New("attempt " + string(rune('0'+n)))
	})

	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.ErrorIs(t, err, ErrExhausted)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.EqualError(t, exhausted.Last, "attempt 3", "carries the last failure")
}

func TestDo_ExhaustedWrapsUnderlyingError(t *testing.T) {
	_, err := Do(context.Background(), Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		return 0, errFlaky
	})

	assert.ErrorIs(t, err, errFlaky)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestDo_SingleAttempt(t *testing.T) {
	var calls int
	_, err := Do(context.Background(), Policy{MaxAttempts: 1, BaseDelay: time.Hour}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errFlaky
	})

	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	var calls int
	_, err := Do(context.Background(), Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		return 0, Permanent(errFlaky)
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errFlaky)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, errFlaky, exhausted.Last)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	start := time.Now()
	_, err := Do(ctx, Policy{MaxAttempts: 3, BaseDelay: time.Hour}, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errFlaky
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Minute, "does not sleep through the backoff")
}
