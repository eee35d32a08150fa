// File: stream/tracker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"io"
	"net"
	"sync/atomic"

	"github.com/momentics/hioload-mw/api"
)

type byteCounters struct {
	read    atomic.Uint64
	written atomic.Uint64
}

// BytesRWTrackerHandle is a shared, read-only view of a stream's counters.
// Counters never decrease and are never reset for the lifetime of the stream.
type BytesRWTrackerHandle struct {
	c *byteCounters
}

// Read returns the number of bytes read so far.
func (h BytesRWTrackerHandle) Read() uint64 {
	if h.c == nil {
		return 0
	}
	return h.c.read.Load()
}

// Written returns the number of bytes written so far.
func (h BytesRWTrackerHandle) Written() uint64 {
	if h.c == nil {
		return 0
	}
	return h.c.written.Load()
}

// BytesRWTracker counts bytes passing through an io.ReadWriter in each
// direction. Bytes moved before an error are counted too.
type BytesRWTracker struct {
	rw io.ReadWriter
	c  *byteCounters
}

// NewBytesRWTracker wraps rw.
func NewBytesRWTracker(rw io.ReadWriter) *BytesRWTracker {
	return &BytesRWTracker{rw: rw, c: &byteCounters{}}
}

func (t *BytesRWTracker) Read(p []byte) (int, error) {
	n, err := t.rw.Read(p)
	if n > 0 {
		t.c.read.Add(uint64(n))
	}
	return n, err
}

func (t *BytesRWTracker) Write(p []byte) (int, error) {
	n, err := t.rw.Write(p)
	if n > 0 {
		t.c.written.Add(uint64(n))
	}
	return n, err
}

// Close closes the underlying stream if it is an io.Closer.
func (t *BytesRWTracker) Close() error {
	if c, ok := t.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Handle returns the shared counter handle.
func (t *BytesRWTracker) Handle() BytesRWTrackerHandle {
	return BytesRWTrackerHandle{c: t.c}
}

// TrackedConn is a net.Conn whose reads and writes are counted. Deadlines,
// addresses and Close go straight to the wrapped connection.
type TrackedConn struct {
	net.Conn
	c *byteCounters
}

// NewTrackedConn wraps conn.
func NewTrackedConn(conn net.Conn) *TrackedConn {
	return &TrackedConn{Conn: conn, c: &byteCounters{}}
}

func (t *TrackedConn) Read(p []byte) (int, error) {
	n, err := t.Conn.Read(p)
	if n > 0 {
		t.c.read.Add(uint64(n))
	}
	return n, err
}

func (t *TrackedConn) Write(p []byte) (int, error) {
	n, err := t.Conn.Write(p)
	if n > 0 {
		t.c.written.Add(uint64(n))
	}
	return n, err
}

// CloseWrite half-closes the wrapped connection when it supports it.
func (t *TrackedConn) CloseWrite() error {
	if cw, ok := t.Conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}

// Handle returns the shared counter handle.
func (t *TrackedConn) Handle() BytesRWTrackerHandle {
	return BytesRWTrackerHandle{c: t.c}
}

// BytesTrackerService hands the inner service a TrackedConn and publishes its
// BytesRWTrackerHandle in the Context extensions.
type BytesTrackerService[S, Resp any] struct {
	inner api.Service[S, net.Conn, Resp]
}

// NewBytesTrackerService wraps inner.
func NewBytesTrackerService[S, Resp any](inner api.Service[S, net.Conn, Resp]) *BytesTrackerService[S, Resp] {
	return &BytesTrackerService[S, Resp]{inner: inner}
}

// Serve implements api.Service.
func (s *BytesTrackerService[S, Resp]) Serve(ctx api.Context[S], conn net.Conn) (Resp, error) {
	tracked := NewTrackedConn(conn)
	api.InsertExt(&ctx, tracked.Handle())
	return s.inner.Serve(ctx, tracked)
}

// BytesTrackerLayer produces BytesTrackerService values.
type BytesTrackerLayer[S, Resp any] struct{}

// NewBytesTrackerLayer creates the layer.
func NewBytesTrackerLayer[S, Resp any]() BytesTrackerLayer[S, Resp] {
	return BytesTrackerLayer[S, Resp]{}
}

// Layer implements api.Layer.
func (BytesTrackerLayer[S, Resp]) Layer(inner api.Service[S, net.Conn, Resp]) api.Service[S, net.Conn, Resp] {
	return NewBytesTrackerService(inner)
}
