// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "time"

// GracefulShutdown stops a component, waiting at most limit for it to drain.
// A limit <= 0 waits without bound.
type GracefulShutdown interface {
	Shutdown(limit time.Duration) error
}
