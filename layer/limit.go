// File: layer/limit.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency limit with FIFO admission of waiting callers.

package layer

import (
	"context"
	"errors"
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-mw/api"
)

// ErrLimitReached is returned when both the in-flight slots and the wait
// queue are full.
var ErrLimitReached = errors.New("concurrency limit reached")

type waiter struct {
	ready     chan struct{}
	cancelled bool
}

// Limiter hands out at most Max concurrent permits. Callers that cannot get a
// permit immediately wait in arrival order.
type Limiter struct {
	mu         sync.Mutex
	max        int
	maxWaiters int
	inflight   int
	waiters    *queue.Queue
}

// NewLimiter creates a limiter. max <= 0 disables limiting; maxWaiters <= 0
// leaves the wait queue unbounded.
func NewLimiter(max, maxWaiters int) *Limiter {
	return &Limiter{max: max, maxWaiters: maxWaiters, waiters: queue.New()}
}

// Acquire blocks until a permit is available or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.max <= 0 {
		return nil
	}
	l.mu.Lock()
	if l.inflight < l.max && l.waiters.Length() == 0 {
		l.inflight++
		l.mu.Unlock()
		return nil
	}
	if l.maxWaiters > 0 && l.waiters.Length() >= l.maxWaiters {
		l.mu.Unlock()
		return ErrLimitReached
	}
	w := &waiter{ready: make(chan struct{})}
	l.waiters.Add(w)
	l.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		select {
		case <-w.ready:
			// permit was handed over while we were giving up; pass it on
			l.mu.Unlock()
			l.Release()
		default:
			w.cancelled = true
			l.mu.Unlock()
		}
		return ctx.Err()
	}
}

// Release returns a permit, handing it to the oldest live waiter if any.
func (l *Limiter) Release() {
	if l.max <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.waiters.Length() > 0 {
		w := l.waiters.Remove().(*waiter)
		if w.cancelled {
			continue
		}
		close(w.ready)
		return
	}
	if l.inflight > 0 {
		l.inflight--
	}
}

// InFlight returns the number of permits currently held.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight
}

// ConcurrencyLimit bounds the number of in-flight calls to the inner service.
type ConcurrencyLimit[S, Req, Resp any] struct {
	inner   api.Service[S, Req, Resp]
	limiter *Limiter
}

// Serve implements api.Service.
func (c *ConcurrencyLimit[S, Req, Resp]) Serve(ctx api.Context[S], req Req) (Resp, error) {
	if err := c.limiter.Acquire(ctx.Ctx()); err != nil {
		var zero Resp
		return zero, err
	}
	defer c.limiter.Release()
	return c.inner.Serve(ctx, req)
}

// ConcurrencyLimitLayer shares one Limiter across every service it wraps.
type ConcurrencyLimitLayer[S, Req, Resp any] struct {
	limiter *Limiter
}

// NewConcurrencyLimitLayer allows max concurrent calls with an unbounded wait queue.
func NewConcurrencyLimitLayer[S, Req, Resp any](max int) *ConcurrencyLimitLayer[S, Req, Resp] {
	return &ConcurrencyLimitLayer[S, Req, Resp]{limiter: NewLimiter(max, 0)}
}

// ConcurrencyLimitWithLimiter uses an existing limiter.
func ConcurrencyLimitWithLimiter[S, Req, Resp any](l *Limiter) *ConcurrencyLimitLayer[S, Req, Resp] {
	return &ConcurrencyLimitLayer[S, Req, Resp]{limiter: l}
}

// Layer implements api.Layer.
func (l *ConcurrencyLimitLayer[S, Req, Resp]) Layer(inner api.Service[S, Req, Resp]) api.Service[S, Req, Resp] {
	return &ConcurrencyLimit[S, Req, Resp]{inner: inner, limiter: l.limiter}
}
