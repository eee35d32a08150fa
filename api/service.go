// File: api/service.go
// Package api defines the Service and Layer contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Service transforms a request into a response. It may block on I/O or timers
// but must eventually return. Implementations are expected to honour
// ctx.Ctx() cancellation where they block.
type Service[S, Req, Resp any] interface {
	Serve(ctx Context[S], req Req) (Resp, error)
}

// ServiceFunc adapts a plain function to Service.
type ServiceFunc[S, Req, Resp any] func(ctx Context[S], req Req) (Resp, error)

// Serve calls f(ctx, req).
func (f ServiceFunc[S, Req, Resp]) Serve(ctx Context[S], req Req) (Resp, error) {
	return f(ctx, req)
}

// Layer wraps one service into another. In and Out are service types; most
// layers keep them identical, response-mapping layers change the response type.
type Layer[In, Out any] interface {
	Layer(inner In) Out
}

// LayerFunc adapts a plain function to Layer.
type LayerFunc[In, Out any] func(inner In) Out

// Layer calls f(inner).
func (f LayerFunc[In, Out]) Layer(inner In) Out {
	return f(inner)
}
