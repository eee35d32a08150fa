package layer

import (
	"log/slog"

	"github.com/momentics/hioload-mw/api"
	"github.com/momentics/hioload-mw/internal/obs"
)

// TraceErr logs every error returned by the inner service and passes it on.
type TraceErr[S, Req, Resp any] struct {
	inner  api.Service[S, Req, Resp]
	logger *slog.Logger
	level  slog.Level
}

// Serve implements api.Service.
func (t *TraceErr[S, Req, Resp]) Serve(ctx api.Context[S], req Req) (Resp, error) {
	resp, err := t.inner.Serve(ctx, req)
	if err != nil {
		t.logger.LogAttrs(ctx.Ctx(), t.level, "service error", obs.Err(err))
	}
	return resp, err
}

// TraceErrLayer produces TraceErr services.
type TraceErrLayer[S, Req, Resp any] struct {
	logger *slog.Logger
	level  slog.Level
}

// NewTraceErrLayer logs at slog.LevelError. A nil logger means slog.Default().
func NewTraceErrLayer[S, Req, Resp any](logger *slog.Logger) *TraceErrLayer[S, Req, Resp] {
	return &TraceErrLayer[S, Req, Resp]{logger: logger, level: slog.LevelError}
}

// WithLevel returns a copy logging at level.
func (l *TraceErrLayer[S, Req, Resp]) WithLevel(level slog.Level) *TraceErrLayer[S, Req, Resp] {
	cp := *l
	cp.level = level
	return &cp
}

// Layer implements api.Layer.
func (l *TraceErrLayer[S, Req, Resp]) Layer(inner api.Service[S, Req, Resp]) api.Service[S, Req, Resp] {
	return &TraceErr[S, Req, Resp]{inner: inner, logger: obs.Logger(l.logger), level: l.level}
}
