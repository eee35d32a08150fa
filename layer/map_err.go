package layer

import "github.com/momentics/hioload-mw/api"

// MapErr applies f to errors of the inner service; successes pass through.
type MapErr[S, Req, Resp any] struct {
	inner api.Service[S, Req, Resp]
	f     func(error) error
}

// NewMapErr wraps inner.
func NewMapErr[S, Req, Resp any](inner api.Service[S, Req, Resp], f func(error) error) *MapErr[S, Req, Resp] {
	return &MapErr[S, Req, Resp]{inner: inner, f: f}
}

// Serve implements api.Service.
func (m *MapErr[S, Req, Resp]) Serve(ctx api.Context[S], req Req) (Resp, error) {
	resp, err := m.inner.Serve(ctx, req)
	if err != nil {
		return resp, m.f(err)
	}
	return resp, nil
}

// MapErrLayer produces MapErr services.
type MapErrLayer[S, Req, Resp any] struct {
	f func(error) error
}

// NewMapErrLayer creates the layer.
func NewMapErrLayer[S, Req, Resp any](f func(error) error) *MapErrLayer[S, Req, Resp] {
	return &MapErrLayer[S, Req, Resp]{f: f}
}

// Layer implements api.Layer.
func (l *MapErrLayer[S, Req, Resp]) Layer(inner api.Service[S, Req, Resp]) api.Service[S, Req, Resp] {
	return NewMapErr(inner, l.f)
}
