package service

import "github.com/momentics/hioload-mw/api"

// Identity returns a layer that hands the inner service back untouched.
func Identity[Svc any]() api.Layer[Svc, Svc] {
	return api.LayerFunc[Svc, Svc](func(inner Svc) Svc { return inner })
}

// Stack composes two layers so that outer wraps inner.
func Stack[A, B, C any](outer api.Layer[B, C], inner api.Layer[A, B]) api.Layer[A, C] {
	return api.LayerFunc[A, C](func(svc A) C {
		return outer.Layer(inner.Layer(svc))
	})
}
