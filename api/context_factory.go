// File: api/context_factory.go
package api

import "context"

// ContextFactory creates the Context for a new connection or request.
type ContextFactory[S any] interface {
	NewContext(parent context.Context) Context[S]
}

// StateContextFactory hands the same shared state to every new Context.
type StateContextFactory[S any] struct {
	State S
}

// NewContext creates a Context carrying f.State.
func (f StateContextFactory[S]) NewContext(parent context.Context) Context[S] {
	return NewContext(parent, f.State)
}
