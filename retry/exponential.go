package retry

import (
	"context"
	"math"
	"time"
)

var _ Policy = (*ExponentialPolicy)(nil)

// ExponentialPolicy multiplies the interval between attempts by base, from minInterval up to
// maxInterval. This is the usual choice for exchange feeds.
type ExponentialPolicy struct {
	attempted   int
	attempts    int
	infinite    bool
	jitter      float64
	base        float64
	minInterval time.Duration
	maxInterval time.Duration
	maxReached  bool
	resetAfter  time.Duration
}

func Exponential(attempts int, minInterval, maxInterval time.Duration) *ExponentialPolicy {
	validateAttempts(attempts)
	validateIntervals(minInterval, maxInterval)

	return &ExponentialPolicy{
		attempts:    attempts,
		infinite:    attempts == 0,
		minInterval: minInterval,
		maxInterval: maxInterval,
		base:        2,
		jitter:      0.1,
	}
}

func (r *ExponentialPolicy) WithBase(base float64) *ExponentialPolicy {
	if base <= 1 {
		panic("base can't be <= 1")
	}
	r.base = base
	return r
}

func (r *ExponentialPolicy) WithJitter(jitter float64) *ExponentialPolicy {
	validateJitter(jitter)
	r.jitter = jitter
	return r
}

func (r *ExponentialPolicy) WithResetAfter(resetAfter time.Duration) *ExponentialPolicy {
	validateResetAfter(resetAfter)
	r.resetAfter = resetAfter
	return r
}

func (r *ExponentialPolicy) Attempt(ctx context.Context) (ok bool) {
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

	var interval time.Duration
	if r.maxReached {
		interval = r.maxInterval
	} else {
		multiplier := math.Pow(r.base, float64(r.attempted-1))
		interval = time.Duration(float64(r.minInterval) * multiplier)
		if interval > r.maxInterval || interval <= 0 {
			r.maxReached = true
			interval = r.maxInterval
		}
	}

	return wait(ctx, interval, r.jitter)
}

func (r *ExponentialPolicy) ResetAfter() time.Duration {
	return r.resetAfter
}

func (r *ExponentialPolicy) Derive() Policy {
	return Exponential(r.attempts, r.minInterval, r.maxInterval).
		WithBase(r.base).
		WithJitter(r.jitter).
		WithResetAfter(r.resetAfter)
}
