// This package contains the main [Policy] interface and several implementations.
package retry

import (
	"context"
	"time"
)

// Policy defines how a feed reconnects after its session ends.
//
// Implementations are not considered thread-safe and each instance is used by a single feed.
type Policy interface {
	// Attempt checks if another connection attempt should be made.
	//
	// This method blocks until an attempt can be made or the context is cancelled. The first
	// attempt never waits. Returns true if an attempt should be made, false if no attempts remain
	// or the context is done.
	Attempt(ctx context.Context) bool
	// ResetAfter returns how long a session must stay connected to count as healthy. A healthy
	// session resets the policy, so the next disconnect starts over from the first attempt.
	//
	// Zero means that any session which delivered at least one frame is healthy.
	ResetAfter() time.Duration
	// Derive returns a new Policy instance with the same settings and no attempts made.
	Derive() Policy
}
