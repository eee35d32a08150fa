package tcp

import (
	"log/slog"
	"time"

	"github.com/momentics/hioload-mw/control"
)

// Metric names published by the listener.
const (
	MetricAccepted     = "tcp.accepted"
	MetricActive       = "tcp.active"
	MetricAcceptErrors = "tcp.accept_errors"
)

// Config holds configuration for the TCP listener.
type Config struct {
	ReusePort        bool          // set SO_REUSEPORT (Linux)
	CPUs             []int         // pin the accept loop thread to these CPUs (Linux)
	AcceptBackoff    time.Duration // first delay after a failed Accept, doubled up to MaxAcceptBackoff
	MaxAcceptBackoff time.Duration
	Logger           *slog.Logger
	Metrics          *control.MetricsRegistry
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		AcceptBackoff:    5 * time.Millisecond,
		MaxAcceptBackoff: time.Second,
	}
}

// Option customizes listener configuration.
type Option func(*Config)

// WithReusePort enables SO_REUSEPORT.
func WithReusePort() Option {
	return func(c *Config) { c.ReusePort = true }
}

// WithCPUs pins the accept loop to the given CPUs.
func WithCPUs(cpus ...int) Option {
	return func(c *Config) { c.CPUs = append([]int(nil), cpus...) }
}

// WithAcceptBackoff overrides the accept retry delays.
func WithAcceptBackoff(first, max time.Duration) Option {
	return func(c *Config) {
		c.AcceptBackoff = first
		c.MaxAcceptBackoff = max
	}
}

// WithLogger sets the listener logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics publishes listener counters into mr.
func WithMetrics(mr *control.MetricsRegistry) Option {
	return func(c *Config) { c.Metrics = mr }
}
