// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-mw/api"
	"github.com/momentics/hioload-mw/graceful"
	"github.com/momentics/hioload-mw/internal/obs"
)

// ErrBind matches every *BindError.
var ErrBind = errors.New("tcp bind failed")

// BindError reports a failure to bind the listening address. It is not retried.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("tcp listen %s: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying OS error.
func (e *BindError) Unwrap() error { return e.Err }

// Is reports whether target is ErrBind.
func (e *BindError) Is(target error) bool { return target == ErrBind }

// SocketInfo is inserted into every connection Context.
type SocketInfo struct {
	LocalAddr net.Addr
	PeerAddr  net.Addr
}

// Listener accepts TCP connections and hands each one to a service.
type Listener struct {
	ln     net.Listener
	cfg    Config
	logger *slog.Logger
	closed atomic.Bool
}

// Bind opens the listening socket on addr.
func Bind(ctx context.Context, addr string, opts ...Option) (*Listener, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	lc := net.ListenConfig{Control: listenControl(cfg)}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}
	l := newListener(ln, cfg)
	l.logger.Info("tcp listener bound", slog.String("addr", ln.Addr().String()))
	return l, nil
}

// NewListener wraps an already bound net.Listener.
func NewListener(ln net.Listener, opts ...Option) *Listener {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	return newListener(ln, cfg)
}

func newListener(ln net.Listener, cfg *Config) *Listener {
	return &Listener{ln: ln, cfg: *cfg, logger: obs.Logger(cfg.Logger)}
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops accepting. Running connections are not touched. Serving a
// closed Listener returns api.ErrServiceClosed.
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.ln.Close()
}

// ServeFunc accepts until ctx is done, running fn for every connection.
// It does not wait for running connections.
func (l *Listener) ServeFunc(ctx context.Context, fn func(context.Context, net.Conn) error) error {
	return l.acceptLoop(ctx, goSpawner(ctx), fn)
}

// ServeFuncGraceful accepts until guard signals stop; every connection is a
// task of the guard's coordinator.
func (l *Listener) ServeFuncGraceful(guard graceful.Guard, fn func(context.Context, net.Conn) error) error {
	return l.acceptLoop(guard.Context(), guardSpawner(guard), fn)
}

// Serve runs svc for every connection with an empty state.
func Serve[Resp any](ctx context.Context, l *Listener, svc api.Service[struct{}, net.Conn, Resp]) error {
	return ServeWithState(ctx, l, struct{}{}, svc)
}

// ServeWithState runs svc for every connection, sharing state across them.
func ServeWithState[S, Resp any](ctx context.Context, l *Listener, state S, svc api.Service[S, net.Conn, Resp]) error {
	return l.acceptLoop(ctx, goSpawner(ctx), handler[S, Resp](api.StateContextFactory[S]{State: state}, svc))
}

// ServeGraceful runs svc for every connection until guard signals stop.
func ServeGraceful[Resp any](guard graceful.Guard, l *Listener, svc api.Service[struct{}, net.Conn, Resp]) error {
	return ServeGracefulWithState(guard, l, struct{}{}, svc)
}

// ServeGracefulWithState is ServeGraceful with a shared state value.
func ServeGracefulWithState[S, Resp any](guard graceful.Guard, l *Listener, state S, svc api.Service[S, net.Conn, Resp]) error {
	return l.acceptLoop(guard.Context(), guardSpawner(guard), handler[S, Resp](api.StateContextFactory[S]{State: state}, svc))
}

func handler[S, Resp any](f api.ContextFactory[S], svc api.Service[S, net.Conn, Resp]) func(context.Context, net.Conn) error {
	return func(ctx context.Context, conn net.Conn) error {
		sctx := f.NewContext(ctx)
		api.InsertExt(&sctx, SocketInfo{LocalAddr: conn.LocalAddr(), PeerAddr: conn.RemoteAddr()})
		_, err := svc.Serve(sctx, conn)
		return err
	}
}

type spawner func(name string, fn func(context.Context))

func goSpawner(ctx context.Context) spawner {
	return func(_ string, fn func(context.Context)) {
		go fn(ctx)
	}
}

func guardSpawner(guard graceful.Guard) spawner {
	return func(name string, fn func(context.Context)) {
		guard.Spawn(name, func(g graceful.Guard) { fn(g.Context()) })
	}
}

// acceptLoop owns the listener until ctx is done; closing the listener is
// what breaks a blocked Accept.
func (l *Listener) acceptLoop(ctx context.Context, spawn spawner, fn func(context.Context, net.Conn) error) error {
	if l.closed.Load() {
		return api.ErrServiceClosed
	}
	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	if len(l.cfg.CPUs) > 0 {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := pinCurrentThread(l.cfg.CPUs); err != nil {
			l.logger.Warn("cpu affinity not applied", obs.Err(err))
		}
	}

	metrics := l.cfg.Metrics
	var backoff time.Duration
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				l.logger.Info("tcp listener stopped", slog.String("addr", l.ln.Addr().String()))
				return nil
			}
			metrics.Add(MetricAcceptErrors, 1)
			backoff = l.nextBackoff(backoff)
			l.logger.Warn("accept failed", obs.Err(err), slog.Duration("retry_in", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			continue
		}
		backoff = 0
		metrics.Add(MetricAccepted, 1)
		metrics.Add(MetricActive, 1)

		peer := conn.RemoteAddr().String()
		spawn("tcp conn "+peer, func(cctx context.Context) {
			defer metrics.Add(MetricActive, -1)
			defer conn.Close()
			defer func() {
				if r := recover(); r != nil {
					l.logger.Error("connection service panicked", slog.String("peer", peer), slog.Any("panic", r))
				}
			}()
			if err := fn(cctx, conn); err != nil {
				l.logger.Debug("connection service error", slog.String("peer", peer), obs.Err(err))
			}
		})
	}
}

func (l *Listener) nextBackoff(prev time.Duration) time.Duration {
	if prev == 0 {
		if l.cfg.AcceptBackoff > 0 {
			return l.cfg.AcceptBackoff
		}
		return 5 * time.Millisecond
	}
	next := prev * 2
	if max := l.cfg.MaxAcceptBackoff; max > 0 && next > max {
		next = max
	}
	return next
}
