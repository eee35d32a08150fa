// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with dynamic update and hot-reload propagation.

package control

import (
	"sync"
)

// ConfigStore is a concurrent map with snapshot reads and reload listeners.
type ConfigStore[K comparable, V any] struct {
	mu        sync.RWMutex
	config    map[K]V
	listeners []func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore[K comparable, V any]() *ConfigStore[K, V] {
	return &ConfigStore[K, V]{
		config: make(map[K]V),
	}
}

// Get returns the value stored under key.
func (cs *ConfigStore[K, V]) Get(key K) (V, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	v, ok := cs.config[key]
	return v, ok
}

// Len returns the number of stored keys.
func (cs *ConfigStore[K, V]) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.config)
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore[K, V]) GetSnapshot() map[K]V {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[K]V, len(cs.config))
	for k, v := range cs.config {
		out[k] = v
	}
	return out
}

// Set stores a single value and dispatches reload.
func (cs *ConfigStore[K, V]) Set(key K, value V) {
	cs.mu.Lock()
	cs.config[key] = value
	cs.mu.Unlock()
	cs.dispatchReload()
}

// SetConfig merges new values and dispatches reload.
func (cs *ConfigStore[K, V]) SetConfig(newCfg map[K]V) {
	cs.mu.Lock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	cs.mu.Unlock()
	cs.dispatchReload()
}

// Delete removes key and dispatches reload if it was present.
func (cs *ConfigStore[K, V]) Delete(key K) {
	cs.mu.Lock()
	_, ok := cs.config[key]
	delete(cs.config, key)
	cs.mu.Unlock()
	if ok {
		cs.dispatchReload()
	}
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore[K, V]) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// dispatchReload invokes all listeners on the caller's goroutine.
func (cs *ConfigStore[K, V]) dispatchReload() {
	cs.mu.RLock()
	listeners := append([]func(){}, cs.listeners...)
	cs.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}
