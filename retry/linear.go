package retry

import (
	"context"
	"time"
)

var _ Policy = (*LinearPolicy)(nil)

// LinearPolicy grows the interval between attempts by a fixed step, from minInterval up to
// maxInterval.
type LinearPolicy struct {
	attempted   int
	attempts    int
	infinite    bool
	jitter      float64
	step        time.Duration
	minInterval time.Duration
	maxInterval time.Duration
	maxReached  bool
	resetAfter  time.Duration
}

// Linear returns a linear policy. With finite attempts, the default step is chosen so that the
// last attempt waits maxInterval.
func Linear(attempts int, minInterval, maxInterval time.Duration) *LinearPolicy {
	validateAttempts(attempts)
	validateIntervals(minInterval, maxInterval)

	var step time.Duration
	if attempts == 0 {
		step = minInterval
	} else if attempts > 2 {
		step = (maxInterval - minInterval) / time.Duration((attempts - 2))
	}

	return &LinearPolicy{
		attempts:    attempts,
		infinite:    attempts == 0,
		minInterval: minInterval,
		maxInterval: maxInterval,
		step:        step,
		jitter:      0.1,
	}
}

func (r *LinearPolicy) WithStep(step time.Duration) *LinearPolicy {
	if step <= 0 {
		panic("step can't be <= 0")
	}
	r.step = step
	return r
}

func (r *LinearPolicy) WithJitter(jitter float64) *LinearPolicy {
	validateJitter(jitter)
	r.jitter = jitter
	return r
}

func (r *LinearPolicy) WithResetAfter(resetAfter time.Duration) *LinearPolicy {
	validateResetAfter(resetAfter)
	r.resetAfter = resetAfter
	return r
}

func (r *LinearPolicy) Attempt(ctx context.Context) (ok bool) {
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
		delta := r.step * time.Duration(r.attempted-1)
		interval = r.minInterval + delta
		if interval > r.maxInterval {
			r.maxReached = true
			interval = r.maxInterval
		}
	}

	return wait(ctx, interval, r.jitter)
}

func (r *LinearPolicy) ResetAfter() time.Duration {
	return r.resetAfter
}

func (r *LinearPolicy) Derive() Policy {
	d := Linear(r.attempts, r.minInterval, r.maxInterval).
		WithJitter(r.jitter).
		WithResetAfter(r.resetAfter)
	if r.step > 0 {
		d.step = r.step
	}
	return d
}
