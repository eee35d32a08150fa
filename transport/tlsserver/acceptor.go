// File: transport/tlsserver/acceptor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TLS acceptor service and layer.

package tlsserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/momentics/hioload-mw/api"
	"github.com/momentics/hioload-mw/control"
	"github.com/momentics/hioload-mw/internal/obs"
)

// Metric names published by the acceptor.
const (
	MetricHandshakes      = "tls.handshakes"
	MetricHandshakeErrors = "tls.handshake_errors"
	MetricOverrideConfigs = "tls.override_configs"
)

// ErrHandshake matches every *HandshakeError.
var ErrHandshake = errors.New("tls handshake failed")

// HandshakeError reports a failed handshake. The connection has been closed.
type HandshakeError struct {
	Peer string
	Err  error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("tls handshake with %s: %v", e.Peer, e.Err)
}

// Unwrap returns the handshake or provider error.
func (e *HandshakeError) Unwrap() error { return e.Err }

// Is reports whether target is ErrHandshake.
func (e *HandshakeError) Is(target error) bool { return target == ErrHandshake }

// Config tunes an acceptor.
type Config struct {
	Handler          ClientConfigHandler
	HandshakeTimeout time.Duration // 0 means bounded only by the connection context
	Logger           *slog.Logger
	Metrics          *control.MetricsRegistry
}

// Option mutates Config.
type Option func(*Config)

// WithClientConfigHandler installs h.
func WithClientConfigHandler(h ClientConfigHandler) Option {
	return func(c *Config) { c.Handler = h }
}

// WithHandshakeTimeout bounds every handshake by d.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Config) { c.HandshakeTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics publishes handshake counters into mr.
func WithMetrics(mr *control.MetricsRegistry) Option {
	return func(c *Config) { c.Metrics = mr }
}

// AcceptorService performs the server handshake and hands the *tls.Conn to
// the inner service.
type AcceptorService[S, Resp any] struct {
	inner  api.Service[S, net.Conn, Resp]
	base   *tls.Config
	cfg    Config
	logger *slog.Logger
}

// NewAcceptorService wraps inner. base is the default configuration and must
// carry a certificate unless every connection gets an override.
func NewAcceptorService[S, Resp any](inner api.Service[S, net.Conn, Resp], base *tls.Config, opts ...Option) *AcceptorService[S, Resp] {
	var cfg Config
	for _, o := range opts {
		o(&cfg)
	}
	return newAcceptorService(inner, base, cfg)
}

func newAcceptorService[S, Resp any](inner api.Service[S, net.Conn, Resp], base *tls.Config, cfg Config) *AcceptorService[S, Resp] {
	if base == nil {
		base = &tls.Config{}
	}
	return &AcceptorService[S, Resp]{inner: inner, base: base, cfg: cfg, logger: obs.Logger(cfg.Logger)}
}

// Serve implements api.Service.
func (a *AcceptorService[S, Resp]) Serve(ctx api.Context[S], conn net.Conn) (Resp, error) {
	var zero Resp
	hctx := ctx.Ctx()
	if a.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(hctx, a.cfg.HandshakeTimeout)
		defer cancel()
	}

	var hello ClientHello
	tlsCfg := a.base.Clone()
	tlsCfg.GetConfigForClient = func(info *tls.ClientHelloInfo) (*tls.Config, error) {
		hello = NewClientHello(info)
		return a.selectConfig(info.Context(), hello)
	}

	tc := tls.Server(conn, tlsCfg)
	if err := tc.HandshakeContext(hctx); err != nil {
		a.cfg.Metrics.Add(MetricHandshakeErrors, 1)
		_ = conn.Close()
		herr := &HandshakeError{Peer: peerOf(conn), Err: err}
		a.logger.Warn("tls handshake failed", slog.String("peer", herr.Peer), obs.Err(err))
		return zero, herr
	}
	a.cfg.Metrics.Add(MetricHandshakes, 1)

	if a.cfg.Handler.storeInfo {
		api.InsertExt(&ctx, hello)
	}
	api.InsertExt(&ctx, tc.ConnectionState())
	a.logger.Debug("tls handshake done", slog.String("peer", peerOf(conn)), slog.String("server_name", hello.ServerName))
	return a.inner.Serve(ctx, tc)
}

func (a *AcceptorService[S, Resp]) selectConfig(ctx context.Context, hello ClientHello) (*tls.Config, error) {
	p := a.cfg.Handler.provider
	if p == nil {
		return nil, nil
	}
	override, err := p.ServerConfig(ctx, hello)
	if err != nil {
		return nil, err
	}
	if override != nil {
		a.cfg.Metrics.Add(MetricOverrideConfigs, 1)
	}
	return override, nil
}

func peerOf(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// AcceptorLayer terminates TLS in front of the wrapped service.
type AcceptorLayer[S, Resp any] struct {
	base *tls.Config
	cfg  Config
}

// NewAcceptorLayer creates a layer with base as the default configuration.
func NewAcceptorLayer[S, Resp any](base *tls.Config, opts ...Option) *AcceptorLayer[S, Resp] {
	var cfg Config
	for _, o := range opts {
		o(&cfg)
	}
	return &AcceptorLayer[S, Resp]{base: base, cfg: cfg}
}

// Layer implements api.Layer.
func (l *AcceptorLayer[S, Resp]) Layer(inner api.Service[S, net.Conn, Resp]) api.Service[S, net.Conn, Resp] {
	return newAcceptorService(inner, l.base, l.cfg)
}
