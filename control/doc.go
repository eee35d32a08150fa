// Package control
// Author: momentics <momentics@gmail.com>
//
// Hot-reload configuration and runtime metrics primitives.
//
// Provides concurrent-safe state handling primitives including:
//   - Snapshot config reads and atomic updates with reload observers
//   - Named counters published by listeners and acceptors
//   - Debug probes evaluated on demand
package control
