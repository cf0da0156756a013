package retry

import (
	"context"
	"time"
)

var _ Policy = (*FixedPolicy)(nil)

// FixedPolicy waits the same interval (with jitter) before every attempt but the first.
type FixedPolicy struct {
	attempted  int
	attempts   int
	infinite   bool
	jitter     float64
	interval   time.Duration
	resetAfter time.Duration
}

func Fixed(attempts int, interval time.Duration) *FixedPolicy {
	validateAttempts(attempts)
	if interval < 0 {
		panic("interval can't be < 0")
	}
	return &FixedPolicy{
		attempts: attempts,
		infinite: attempts == 0,
		interval: interval,
		jitter:   0.1,
	}
}

func (r *FixedPolicy) WithJitter(jitter float64) *FixedPolicy {
	validateJitter(jitter)
	r.jitter = jitter
	return r
}

func (r *FixedPolicy) WithResetAfter(resetAfter time.Duration) *FixedPolicy {
	validateResetAfter(resetAfter)
	r.resetAfter = resetAfter
	return r
}

func (r *FixedPolicy) Attempt(ctx context.Context) (ok bool) {
	defer func() {
		if ok {
			r.attempted += 1
		}
	}()

	if r.attempted == 0 {
		return ctx.Err() == nil
	}

	if !r.infinite && r.attempted >= r.attempts {
		return false
	}

	return wait(ctx, r.interval, r.jitter)
}

func (r *FixedPolicy) ResetAfter() time.Duration {
	return r.resetAfter
}

func (r *FixedPolicy) Derive() Policy {
	return Fixed(r.attempts, r.interval).
		WithJitter(r.jitter).
		WithResetAfter(r.resetAfter)
}
