package tcp_test

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioload-mw/api"
	"github.com/momentics/hioload-mw/control"
	"github.com/momentics/hioload-mw/graceful"
	"github.com/momentics/hioload-mw/internal/obs"
	"github.com/momentics/hioload-mw/layer"
	"github.com/momentics/hioload-mw/service"
	"github.com/momentics/hioload-mw/stream"
	"github.com/momentics/hioload-mw/transport/tcp"
)

func bind(t *testing.T, opts ...tcp.Option) *tcp.Listener {
	t.Helper()
	opts = append([]tcp.Option{tcp.WithLogger(obs.Nop())}, opts...)
	l, err := tcp.Bind(context.Background(), "127.0.0.1:0", opts...)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestBindFailureIsReported(t *testing.T) {
	l := bind(t)
	defer l.Close()

	_, err := tcp.Bind(context.Background(), l.Addr().String(), tcp.WithLogger(obs.Nop()))
	var be *tcp.BindError
	if !errors.As(err, &be) || !errors.Is(err, tcp.ErrBind) {
		t.Fatalf("err = %v, want *BindError", err)
	}
	if be.Addr != l.Addr().String() {
		t.Errorf("BindError.Addr = %q", be.Addr)
	}
}

func TestServeGracefulEchoWithLayers(t *testing.T) {
	metrics := control.NewMetricsRegistry()
	l := bind(t, tcp.WithMetrics(metrics))
	shutdown := graceful.New(graceful.WithLogger(obs.Nop()))

	var sawSocketInfo atomic.Bool
	echo := stream.NewEchoService[struct{}]()
	svc := service.NewBuilder[struct{}, net.Conn, int64]().
		Layer(layer.NewTimeoutLayer[struct{}, net.Conn, int64](5 * time.Second)).
		Layer(stream.NewBytesTrackerLayer[struct{}, int64]()).
		ServiceFunc(func(ctx api.Context[struct{}], conn net.Conn) (int64, error) {
			if info, ok := api.GetExt[tcp.SocketInfo](ctx); ok && info.PeerAddr != nil {
				sawSocketInfo.Store(true)
			}
			return echo.Serve(ctx, conn)
		})

	served := make(chan error, 1)
	shutdown.Spawn("tcp listener", func(g graceful.Guard) {
		served <- tcp.ServeGraceful(g, l, svc)
	})

	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 5)
	if _, err := io.ReadFull(conn, buf); err != nil || string(buf) != "hello" {
		t.Fatalf("echo = %q, %v", buf, err)
	}
	conn.Close()

	if err := shutdown.Shutdown(2 * time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-served; err != nil {
		t.Errorf("ServeGraceful returned %v", err)
	}
	if !sawSocketInfo.Load() {
		t.Error("SocketInfo missing from connection context")
	}
	if metrics.Get(tcp.MetricAccepted) != 1 || metrics.Get(tcp.MetricActive) != 0 {
		t.Errorf("metrics = %v", metrics.GetSnapshot())
	}
	if _, err := net.DialTimeout("tcp", l.Addr().String(), 200*time.Millisecond); err == nil {
		t.Error("listener still accepting after shutdown")
	}
}

func TestShutdownWaitsForInFlightConnection(t *testing.T) {
	l := bind(t)
	shutdown := graceful.New(graceful.WithLogger(obs.Nop()))

	var finished atomic.Bool
	started := make(chan struct{})
	shutdown.Spawn("listener", func(g graceful.Guard) {
		_ = l.ServeFuncGraceful(g, func(ctx context.Context, conn net.Conn) error {
			close(started)
			<-ctx.Done()
			time.Sleep(50 * time.Millisecond)
			finished.Store(true)
			return nil
		})
	})

	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	<-started

	if err := shutdown.Shutdown(time.Second); err != nil {
		t.Fatal(err)
	}
	if !finished.Load() {
		t.Error("shutdown did not wait for the in-flight connection")
	}
}

func TestServiceErrorsDoNotStopListener(t *testing.T) {
	l := bind(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	svc := api.ServiceFunc[struct{}, net.Conn, struct{}](func(_ api.Context[struct{}], conn net.Conn) (struct{}, error) {
		calls.Add(1)
		_, _ = conn.Write([]byte{'x'})
		return struct{}{}, errors.New("service failed")
	})
	done := make(chan error, 1)
	go func() { done <- tcp.Serve[struct{}](ctx, l, svc) }()

	for i := 0; i < 3; i++ {
		c, err := net.Dial("tcp", l.Addr().String())
		if err != nil {
			t.Fatal(err)
		}
		b := make([]byte, 1)
		if _, err := io.ReadFull(c, b); err != nil {
			t.Fatalf("connection %d: %v", i, err)
		}
		c.Close()
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d", calls.Load())
	}
}

func TestServeWithSharedState(t *testing.T) {
	l := bind(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type state struct{ hits atomic.Int32 }
	st := &state{}
	svc := api.ServiceFunc[*state, net.Conn, struct{}](func(c api.Context[*state], conn net.Conn) (struct{}, error) {
		c.State().hits.Add(1)
		_, err := conn.Write([]byte{'k'})
		return struct{}{}, err
	})
	go func() { _ = tcp.ServeWithState[*state, struct{}](ctx, l, st, svc) }()

	for i := 0; i < 2; i++ {
		c, err := net.Dial("tcp", l.Addr().String())
		if err != nil {
			t.Fatal(err)
		}
		_, _ = io.ReadFull(c, make([]byte, 1))
		c.Close()
	}
	if st.hits.Load() != 2 {
		t.Errorf("hits = %d", st.hits.Load())
	}
}

// flakyListener fails Accept a fixed number of times before delegating.
// With always set it never delegates.
type flakyListener struct {
	net.Listener
	failures atomic.Int32
	always   bool
}

func (f *flakyListener) Accept() (net.Conn, error) {
	if f.always || f.failures.Add(-1) >= 0 {
		return nil, &net.OpError{Op: "accept", Net: "tcp", Err: errors.New("too many open files")}
	}
	return f.Listener.Accept()
}

func TestTransientAcceptErrorsAreRetried(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	flaky := &flakyListener{Listener: inner}
	flaky.failures.Store(3)

	metrics := control.NewMetricsRegistry()
	l := tcp.NewListener(flaky,
		tcp.WithLogger(obs.Nop()),
		tcp.WithMetrics(metrics),
		tcp.WithAcceptBackoff(time.Millisecond, 4*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- l.ServeFunc(ctx, func(_ context.Context, conn net.Conn) error {
			_, err := conn.Write([]byte{'y'})
			return err
		})
	}()

	for i := 0; i < 2; i++ {
		c, err := net.Dial("tcp", l.Addr().String())
		if err != nil {
			t.Fatal(err)
		}
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, err := io.ReadFull(c, make([]byte, 1)); err != nil {
			t.Fatalf("connection %d not served after accept errors: %v", i, err)
		}
		c.Close()
	}

	if got := metrics.Get(tcp.MetricAcceptErrors); got != 3 {
		t.Errorf("accept errors = %d, want 3", got)
	}
	if got := metrics.Get(tcp.MetricAccepted); got != 2 {
		t.Errorf("accepted = %d, want 2", got)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("ServeFunc = %v", err)
	}
}

func TestCancelDuringAcceptBackoff(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	metrics := control.NewMetricsRegistry()
	l := tcp.NewListener(&flakyListener{Listener: inner, always: true},
		tcp.WithLogger(obs.Nop()),
		tcp.WithMetrics(metrics),
		tcp.WithAcceptBackoff(time.Second, 5*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.ServeFunc(ctx, func(context.Context, net.Conn) error { return nil })
	}()

	time.Sleep(50 * time.Millisecond)
	start := time.Now()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeFunc = %v", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("ServeFunc kept sleeping in backoff after cancel")
	}
	if el := time.Since(start); el > 300*time.Millisecond {
		t.Errorf("returned %v after cancel", el)
	}
	if metrics.Get(tcp.MetricAcceptErrors) < 1 {
		t.Error("accept error not counted")
	}
}

func TestServeOnClosedListener(t *testing.T) {
	l := bind(t)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	err := l.ServeFunc(context.Background(), func(context.Context, net.Conn) error { return nil })
	if !errors.Is(err, api.ErrServiceClosed) {
		t.Fatalf("ServeFunc on closed listener = %v", err)
	}

	l2 := bind(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l2.ServeFunc(ctx, func(context.Context, net.Conn) error { return nil }); err != nil {
		t.Fatalf("first ServeFunc = %v", err)
	}
	if err := tcp.Serve[struct{}](context.Background(), l2, api.ServiceFunc[struct{}, net.Conn, struct{}](
		func(api.Context[struct{}], net.Conn) (struct{}, error) { return struct{}{}, nil })); !errors.Is(err, api.ErrServiceClosed) {
		t.Errorf("Serve after stop = %v", err)
	}
}
