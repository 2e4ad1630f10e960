package scheduler

import "context"

// Gate is a coalescing wake-up signal with a single waiter. Any number of
// Signal calls between two Waits release exactly one Wait.
type Gate struct {
	ch chan struct{}
}

// NewGate returns a Gate with nothing pending.
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{}, 1)}
}

// Signal wakes the waiter, or records a pending wake-up if nobody waits.
// It never blocks.
func (g *Gate) Signal() {
	select {
	case g.ch <- struct{}{}:
	default:
		// Already pending
	}
}

// Wait blocks until a wake-up is available and consumes it, or until ctx
// is done.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports whether a wake-up is recorded.
func (g *Gate) Pending() bool {
	return len(g.ch) > 0
}
