// Package pool
// Author: momentics <momentics@gmail.com>
//
// Reusable object and copy-buffer pools for the stream services.
package pool
