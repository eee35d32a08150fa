package layer

import "github.com/momentics/hioload-mw/api"

// MapResponse applies f to successful responses of the inner service.
// Failures are returned untouched and f is never called for them.
type MapResponse[S, Req, In, Out any] struct {
	inner api.Service[S, Req, In]
	f     func(In) Out
}

// NewMapResponse wraps inner.
func NewMapResponse[S, Req, In, Out any](inner api.Service[S, Req, In], f func(In) Out) *MapResponse[S, Req, In, Out] {
	return &MapResponse[S, Req, In, Out]{inner: inner, f: f}
}

// Serve implements api.Service.
func (m *MapResponse[S, Req, In, Out]) Serve(ctx api.Context[S], req Req) (Out, error) {
	resp, err := m.inner.Serve(ctx, req)
	if err != nil {
		var zero Out
		return zero, err
	}
	return m.f(resp), nil
}

// MapResponseLayer produces MapResponse services.
type MapResponseLayer[S, Req, In, Out any] struct {
	f func(In) Out
}

// NewMapResponseLayer creates the layer.
func NewMapResponseLayer[S, Req, In, Out any](f func(In) Out) *MapResponseLayer[S, Req, In, Out] {
	return &MapResponseLayer[S, Req, In, Out]{f: f}
}

// Layer implements api.Layer.
func (l *MapResponseLayer[S, Req, In, Out]) Layer(inner api.Service[S, Req, In]) api.Service[S, Req, Out] {
	return NewMapResponse(inner, l.f)
}
