// File: layer/timeout.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package layer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/momentics/hioload-mw/api"
)

// ErrTimeout matches every *Elapsed through errors.Is.
var ErrTimeout = errors.New("timeout exceeded")

// Elapsed is the default error returned when a call outlives its timeout.
type Elapsed struct {
	After time.Duration
}

func (e *Elapsed) Error() string {
	return fmt.Sprintf("request timed out after %s", e.After)
}

// Timeout reports true so Elapsed satisfies net.Error style checks.
func (e *Elapsed) Timeout() bool { return true }

// Is reports whether target is ErrTimeout.
func (e *Elapsed) Is(target error) bool { return target == ErrTimeout }

// Timeout races the inner service against a fixed duration.
//
// When the timer wins, the inner call's context is cancelled and the call is
// left to finish on its own goroutine; its result is discarded.
type Timeout[S, Req, Resp any] struct {
	inner   api.Service[S, Req, Resp]
	timeout time.Duration
	intoErr MakeError
}

// NewTimeout wraps inner. A non-positive timeout disables the race.
func NewTimeout[S, Req, Resp any](inner api.Service[S, Req, Resp], timeout time.Duration, intoErr MakeError) *Timeout[S, Req, Resp] {
	if intoErr == nil {
		intoErr = StaticError{Err: &Elapsed{After: timeout}}
	}
	return &Timeout[S, Req, Resp]{inner: inner, timeout: timeout, intoErr: intoErr}
}

type result[Resp any] struct {
	resp Resp
	err  error
}

// Serve implements api.Service.
func (t *Timeout[S, Req, Resp]) Serve(ctx api.Context[S], req Req) (Resp, error) {
	if t.timeout <= 0 {
		return t.inner.Serve(ctx, req)
	}

	callCtx, cancel := context.WithCancel(ctx.Ctx())
	defer cancel()

	done := make(chan result[Resp], 1)
	go func() {
		var r result[Resp]
		defer func() {
			if p := recover(); p != nil {
				r.err = api.BoxError(fmt.Errorf("layer: panic in timed service: %v", p))
			}
			done <- r
		}()
		r.resp, r.err = t.inner.Serve(ctx.WithCtx(callCtx), req)
	}()

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-timer.C:
		var zero Resp
		return zero, t.intoErr.MakeError()
	}
}

// TimeoutLayer applies a Timeout to every service it wraps.
type TimeoutLayer[S, Req, Resp any] struct {
	timeout time.Duration
	intoErr MakeError
}

// NewTimeoutLayer times out with an *Elapsed error.
func NewTimeoutLayer[S, Req, Resp any](timeout time.Duration) *TimeoutLayer[S, Req, Resp] {
	return &TimeoutLayer[S, Req, Resp]{
		timeout: timeout,
		intoErr: StaticError{Err: &Elapsed{After: timeout}},
	}
}

// TimeoutWithError times out with the given error value.
func TimeoutWithError[S, Req, Resp any](timeout time.Duration, err error) *TimeoutLayer[S, Req, Resp] {
	return &TimeoutLayer[S, Req, Resp]{timeout: timeout, intoErr: StaticError{Err: err}}
}

// TimeoutWithErrorFn times out with an error built by fn at expiry.
func TimeoutWithErrorFn[S, Req, Resp any](timeout time.Duration, fn func() error) *TimeoutLayer[S, Req, Resp] {
	return &TimeoutLayer[S, Req, Resp]{timeout: timeout, intoErr: ErrorFunc(fn)}
}

// Layer implements api.Layer.
func (l *TimeoutLayer[S, Req, Resp]) Layer(inner api.Service[S, Req, Resp]) api.Service[S, Req, Resp] {
	return NewTimeout(inner, l.timeout, l.intoErr)
}
