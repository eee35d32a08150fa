// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for system-level monitoring.
// Exposes named atomic counters with dynamic registration.

package control

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsRegistry holds named counters. A nil registry accepts and drops
// every update so components can publish unconditionally.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*atomic.Int64
	updated  atomic.Int64
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*atomic.Int64),
	}
}

// Counter returns the counter registered under name, creating it if needed.
// A nil registry returns a detached counter.
func (mr *MetricsRegistry) Counter(name string) *atomic.Int64 {
	if mr == nil {
		return new(atomic.Int64)
	}
	mr.mu.RLock()
	c, ok := mr.counters[name]
	mr.mu.RUnlock()
	if ok {
		return c
	}
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if c, ok = mr.counters[name]; !ok {
		c = new(atomic.Int64)
		mr.counters[name] = c
	}
	return c
}

// Add adds delta to the named counter.
func (mr *MetricsRegistry) Add(name string, delta int64) {
	if mr == nil {
		return
	}
	mr.Counter(name).Add(delta)
	mr.updated.Store(time.Now().UnixNano())
}

// Get returns the current value of the named counter.
func (mr *MetricsRegistry) Get(name string) int64 {
	if mr == nil {
		return 0
	}
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	if c, ok := mr.counters[name]; ok {
		return c.Load()
	}
	return 0
}

// Updated returns the time of the last Add.
func (mr *MetricsRegistry) Updated() time.Time {
	if mr == nil || mr.updated.Load() == 0 {
		return time.Time{}
	}
	return time.Unix(0, mr.updated.Load())
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]int64 {
	if mr == nil {
		return nil
	}
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]int64, len(mr.counters))
	for k, c := range mr.counters {
		out[k] = c.Load()
	}
	return out
}
