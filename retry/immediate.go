package retry

import (
	"context"
	"time"
)

var _ Policy = (*ImmediatePolicy)(nil)

// ImmediatePolicy reconnects without waiting.
type ImmediatePolicy struct {
	attempted  int
	attempts   int
	infinite   bool
	resetAfter time.Duration
}

// Immediate returns a policy allowing the given number of attempts. Zero attempts means infinite.
func Immediate(attempts int) *ImmediatePolicy {
	validateAttempts(attempts)
	return &ImmediatePolicy{
		attempts: attempts,
		infinite: attempts == 0,
	}
}

func (r *ImmediatePolicy) WithResetAfter(resetAfter time.Duration) *ImmediatePolicy {
	validateResetAfter(resetAfter)
	r.resetAfter = resetAfter
	return r
}

func (r *ImmediatePolicy) Attempt(ctx context.Context) bool {
	if !r.infinite && r.attempted >= r.attempts {
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	r.attempted += 1
	return true
}

func (r *ImmediatePolicy) ResetAfter() time.Duration {
	return r.resetAfter
}

func (r *ImmediatePolicy) Derive() Policy {
	return Immediate(r.attempts).WithResetAfter(r.resetAfter)
}
