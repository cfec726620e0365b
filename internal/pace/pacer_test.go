package pace

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitEnforcesDelayBetweenCalls(t *testing.T) {
	t.Parallel()

	p := New(80*time.Millisecond, time.Second)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	require.Less(t, time.Since(start), 50*time.Millisecond, "first call should pass immediately")

	require.NoError(t, p.Wait(ctx))
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond, "second call should honor the delay")
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	p := New(10*time.Second, time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, p.Wait(ctx))
	cancel()
	require.Error(t, p.Wait(ctx))
}

func TestRetryOnThrottleRetriesExactlyOnce(t *testing.T) {
	t.Parallel()

	p := New(time.Millisecond, 5*time.Second)
	var slept []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) { slept = append(slept, d) }

	calls := 0
	err := p.RetryOnThrottle(context.Background(), func() error {
		calls++
		if calls == 1 {
			return fmt.Errorf("page 1: %w", ErrThrottled)
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 2, calls, "expected exactly one retry")
	require.Equal(t, []time.Duration{5 * time.Second}, slept, "expected exactly one backoff sleep")
}

func TestRetryOnThrottleGivesUpAfterSecondThrottle(t *testing.T) {
	t.Parallel()

	p := New(time.Millisecond, time.Second)
	p.sleep = func(context.Context, time.Duration) {}

	calls := 0
	err := p.RetryOnThrottle(context.Background(), func() error {
		calls++
		return ErrThrottled
	})

	require.ErrorIs(t, err, ErrThrottled)
	require.Equal(t, 2, calls, "second throttle must not trigger another retry")
}

func TestRetryOnThrottlePassesThroughOtherErrors(t *testing.T) {
	t.Parallel()

	p := New(time.Millisecond, time.Second)
	p.sleep = func(context.Context, time.Duration) {
		t.Fatal("non-throttle errors must not back off")
	}

	sentinel := errors.New("boom")
	calls := 0
	err := p.RetryOnThrottle(context.Background(), func() error {
		calls++
		return sentinel
	})

	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 1, calls)
}
