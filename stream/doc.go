// Package stream
// Author: momentics <momentics@gmail.com>
//
// Services and layers operating directly on raw duplex byte streams
// (TCP or TLS connections): byte accounting, echo and forwarding.
package stream
