package graceful

import (
	"context"
	"time"
)

// Guard is handed to every spawned task. It reports the shared stop signal
// and lets the task spawn further tracked work.
type Guard struct {
	s    *Shutdown
	id   uint64
	name string
}

// Name returns the task name given at spawn time.
func (g Guard) Name() string { return g.name }

// Done is closed once stop has been signalled.
func (g Guard) Done() <-chan struct{} { return g.s.ctx.Done() }

// Context is cancelled once stop has been signalled.
func (g Guard) Context() context.Context { return g.s.ctx }

// IsCancelled reports whether stop has been signalled.
func (g Guard) IsCancelled() bool {
	select {
	case <-g.s.ctx.Done():
		return true
	default:
		return false
	}
}

// Spawn starts a sibling task tracked by the same coordinator.
func (g Guard) Spawn(name string, fn func(Guard)) {
	g.s.Spawn(name, fn)
}

// Sleep waits for d or until stop is signalled, reporting whether the full
// duration elapsed.
func (g Guard) Sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-g.s.ctx.Done():
		return false
	}
}
