// File: api/context.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-call context: a caller-chosen shared state plus an open, type-keyed
// extension store, threaded through every layer invocation. Cancellation and
// deadlines ride on the embedded standard context.Context.

package api

import "context"

// Context is created once per accepted connection or per request and flows by
// value through the layer chain. Copies share the same Extensions.
type Context[S any] struct {
	ctx   context.Context
	state S
	ext   *Extensions
}

// NewContext creates a Context with the given parent and state.
// A nil parent is replaced by context.Background().
func NewContext[S any](parent context.Context, state S) Context[S] {
	if parent == nil {
		parent = context.Background()
	}
	return Context[S]{ctx: parent, state: state, ext: NewExtensions()}
}

// State returns the shared state value.
func (c Context[S]) State() S {
	return c.state
}

// Ctx returns the standard context used for cancellation and deadlines.
func (c Context[S]) Ctx() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// WithCtx returns a copy bound to ctx. The extension store is shared.
func (c Context[S]) WithCtx(ctx context.Context) Context[S] {
	c.ctx = ctx
	return c
}

// Extensions returns the metadata store, allocating it for zero Contexts.
func (c *Context[S]) Extensions() *Extensions {
	if c.ext == nil {
		c.ext = NewExtensions()
	}
	return c.ext
}

// Clone returns a copy with an independent shallow copy of the extensions.
func (c Context[S]) Clone() Context[S] {
	if c.ext != nil {
		c.ext = c.ext.Clone()
	}
	return c
}

// GetExt is shorthand for Get[T](ctx.Extensions()).
func GetExt[T, S any](ctx Context[S]) (T, bool) {
	if ctx.ext == nil {
		var zero T
		return zero, false
	}
	return Get[T](ctx.ext)
}

// InsertExt is shorthand for Insert[T](ctx.Extensions(), v).
func InsertExt[T, S any](ctx *Context[S], v T) {
	Insert(ctx.Extensions(), v)
}
