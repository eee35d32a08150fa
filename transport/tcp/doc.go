// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements the TCP listener that drives composed services.
//
// Each accepted connection runs on its own goroutine; graceful variants spawn
// connections through a graceful.Guard so shutdown waits for them. Linux
// builds support SO_REUSEPORT and pinning the accept loop to a CPU set.
package tcp
