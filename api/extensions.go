// Package api
// Author: momentics <momentics@gmail.com>
//
// Thread-safe, type-keyed extension store attached to every Context.

package api

import (
	"reflect"
	"sync"
)

// Extensions maps a Go type to a single value of that type.
type Extensions struct {
	mu    sync.RWMutex
	store map[reflect.Type]any
}

// NewExtensions creates an empty store.
func NewExtensions() *Extensions {
	return &Extensions{store: make(map[reflect.Type]any)}
}

func keyOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Insert stores v under T, returning the previous value if there was one.
func Insert[T any](e *Extensions, v T) (prev T, replaced bool) {
	k := keyOf[T]()
	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.store[k]; ok {
		prev, replaced = old.(T)
	}
	e.store[k] = v
	return prev, replaced
}

// Get fetches the value stored under T.
func Get[T any](e *Extensions) (T, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.store[keyOf[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	t, _ := v.(T) // nil interface values come back as the zero T
	return t, true
}

// Contains reports whether a value is stored under T.
func Contains[T any](e *Extensions) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.store[keyOf[T]()]
	return ok
}

// Remove deletes and returns the value stored under T.
func Remove[T any](e *Extensions) (T, bool) {
	k := keyOf[T]()
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.store[k]
	if !ok {
		var zero T
		return zero, false
	}
	delete(e.store, k)
	t, _ := v.(T) // nil interface values come back as the zero T
	return t, true
}

// Len returns the number of stored values.
func (e *Extensions) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.store)
}

// Clone returns a shallow copy of the store.
func (e *Extensions) Clone() *Extensions {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make(map[reflect.Type]any, len(e.store))
	for k, v := range e.store {
		cp[k] = v
	}
	return &Extensions{store: cp}
}
