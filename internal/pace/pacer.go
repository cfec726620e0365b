// Package pace enforces per-source request pacing and the single bounded
// retry applied when a source answers with a rate-limit rejection.
package pace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ErrThrottled marks a rate-limit rejection (HTTP 429). Callers wrap or
// return it so the retry helper can recognize the condition.
var ErrThrottled = errors.New("throttled by source")

// Pacer serializes calls to one source with a fixed inter-call delay and
// owns the longer backoff slept after a throttle.
type Pacer struct {
	limiter         *rate.Limiter
	throttleBackoff time.Duration

	// sleep is injectable so tests can observe backoffs without waiting.
	sleep func(ctx context.Context, d time.Duration)
}

// New builds a Pacer with the given inter-call delay and throttle backoff.
func New(delay, throttleBackoff time.Duration) *Pacer {
	if delay <= 0 {
		delay = time.Second
	}
	if throttleBackoff <= 0 {
		throttleBackoff = 5 * time.Second
	}
	return &Pacer{
		limiter:         rate.NewLimiter(rate.Every(delay), 1),
		throttleBackoff: throttleBackoff,
		sleep:           sleepCtx,
	}
}

// Wait blocks until the inter-call delay since the previous call has
// elapsed. The first call passes immediately.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pace wait: %w", err)
	}
	return nil
}

// RetryOnThrottle runs fn once; if it fails with ErrThrottled, it sleeps the
// throttle backoff and reruns fn exactly once. A second throttle, or any
// other error, is returned to the caller. The bound is deliberate: sustained
// throttling degrades to "no data for this call" rather than looping.
func (p *Pacer) RetryOnThrottle(ctx context.Context, fn func() error) error {
	err := fn()
	if !errors.Is(err, ErrThrottled) {
		return err
	}
	p.sleep(ctx, p.throttleBackoff)
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
