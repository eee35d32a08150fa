// File: stream/forwarder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"context"
	"errors"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-mw/api"
	"github.com/momentics/hioload-mw/pool"
)

// ForwardStats reports how many bytes moved in each direction.
type ForwardStats struct {
	Upstream   int64 // client -> target
	Downstream int64 // target -> client
}

// Forwarder proxies a connection to a fixed target address.
type Forwarder[S any] struct {
	target string
	dialer *net.Dialer
}

// NewForwarder creates a forwarder to target ("host:port").
func NewForwarder[S any](target string) *Forwarder[S] {
	return &Forwarder[S]{target: target, dialer: &net.Dialer{Timeout: 10 * time.Second}}
}

// WithDialer returns a copy using d.
func (f *Forwarder[S]) WithDialer(d *net.Dialer) *Forwarder[S] {
	cp := *f
	cp.dialer = d
	return &cp
}

// Serve implements api.Service.
func (f *Forwarder[S]) Serve(ctx api.Context[S], conn net.Conn) (ForwardStats, error) {
	var stats ForwardStats
	target, err := f.dialer.DialContext(ctx.Ctx(), "tcp", f.target)
	if err != nil {
		return stats, err
	}
	defer target.Close()

	stop := context.AfterFunc(ctx.Ctx(), func() {
		now := time.Now()
		_ = conn.SetDeadline(now)
		_ = target.SetDeadline(now)
	})
	defer stop()

	var g errgroup.Group
	g.Go(func() error {
		n, err := pool.Default.Copy(target, conn)
		stats.Upstream = n
		closeWrite(target)
		return err
	})
	g.Go(func() error {
		n, err := pool.Default.Copy(conn, target)
		stats.Downstream = n
		closeWrite(conn)
		return err
	})
	err = g.Wait()
	if err != nil && errors.Is(err, net.ErrClosed) {
		err = nil
	}
	if err != nil && ctx.Ctx().Err() != nil {
		err = ctx.Ctx().Err()
	}
	return stats, err
}

func closeWrite(c net.Conn) {
	if cw, ok := c.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
}
