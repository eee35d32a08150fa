// Package obs holds the structured logging helpers shared by every component.
package obs

import (
	"io"
	"log/slog"
)

// Logger returns l, or slog.Default() when l is nil.
func Logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Err is the attribute every component uses to attach an error.
func Err(err error) slog.Attr {
	return slog.Any("err", err)
}
