// File: service/builder.go
// Package service implements onion composition of layers around a terminal service.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package service

import (
	"github.com/momentics/hioload-mw/api"
	"github.com/momentics/hioload-mw/layer"
)

// Builder accumulates layers in call order L1, L2, ..., Ln. Service(T) then
// yields L1(L2(...Ln(T))): L1 runs first on the request path and last on the
// response path.
//
// Resp is the response type expected from the next inner service, Final the
// response type of the composed service. They only differ once MapResponse
// (or Then with a type-changing layer) has been applied.
//
// Builders are immutable: every method returns a new Builder, so a partially
// built stack can be shared and extended independently.
type Builder[S, Req, Resp, Final any] struct {
	wrap func(api.Service[S, Req, Resp]) api.Service[S, Req, Final]
}

// NewBuilder returns an empty builder.
func NewBuilder[S, Req, Resp any]() *Builder[S, Req, Resp, Resp] {
	return &Builder[S, Req, Resp, Resp]{
		wrap: func(inner api.Service[S, Req, Resp]) api.Service[S, Req, Resp] { return inner },
	}
}

// Layer appends l inside all previously added layers.
func (b *Builder[S, Req, Resp, Final]) Layer(l api.Layer[api.Service[S, Req, Resp], api.Service[S, Req, Resp]]) *Builder[S, Req, Resp, Final] {
	return Then(b, l)
}

// LayerFunc appends a plain wrapping function.
func (b *Builder[S, Req, Resp, Final]) LayerFunc(fn func(api.Service[S, Req, Resp]) api.Service[S, Req, Resp]) *Builder[S, Req, Resp, Final] {
	return b.Layer(api.LayerFunc[api.Service[S, Req, Resp], api.Service[S, Req, Resp]](fn))
}

// Service wraps the terminal service t with every accumulated layer.
// It panics if t is nil.
func (b *Builder[S, Req, Resp, Final]) Service(t api.Service[S, Req, Resp]) api.Service[S, Req, Final] {
	if t == nil {
		panic(api.ErrMissingService)
	}
	return b.wrap(t)
}

// ServiceFunc is Service for a plain function.
func (b *Builder[S, Req, Resp, Final]) ServiceFunc(fn func(api.Context[S], Req) (Resp, error)) api.Service[S, Req, Final] {
	return b.Service(api.ServiceFunc[S, Req, Resp](fn))
}

// Into returns the accumulated stack as a single layer.
func (b *Builder[S, Req, Resp, Final]) Into() api.Layer[api.Service[S, Req, Resp], api.Service[S, Req, Final]] {
	return api.LayerFunc[api.Service[S, Req, Resp], api.Service[S, Req, Final]](b.wrap)
}

// Then appends a layer that may change the response type seen by the layers
// above it. Mismatched types fail to compile.
func Then[S, Req, In, Resp, Final any](
	b *Builder[S, Req, Resp, Final],
	l api.Layer[api.Service[S, Req, In], api.Service[S, Req, Resp]],
) *Builder[S, Req, In, Final] {
	outer := b.wrap
	return &Builder[S, Req, In, Final]{
		wrap: func(inner api.Service[S, Req, In]) api.Service[S, Req, Final] {
			return outer(l.Layer(inner))
		},
	}
}

// MapResponse appends a response-mapping layer: inner services produce In,
// everything above sees f(In).
func MapResponse[S, Req, In, Resp, Final any](b *Builder[S, Req, Resp, Final], f func(In) Resp) *Builder[S, Req, In, Final] {
	return Then[S, Req, In, Resp, Final](b, layer.NewMapResponseLayer[S, Req](f))
}

// MapErr appends an error-mapping layer.
func (b *Builder[S, Req, Resp, Final]) MapErr(f func(error) error) *Builder[S, Req, Resp, Final] {
	return b.Layer(layer.NewMapErrLayer[S, Req, Resp](f))
}
