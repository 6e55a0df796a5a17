package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithAttrs returns a context carrying attrs. Records logged with the context
// through a ContextHandler get them appended.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	existing := attrsFromContext(ctx)
	merged := make([]slog.Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, ctxKey{}, merged)
}

func attrsFromContext(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(ctxKey{}).([]slog.Attr)
	return attrs
}

// ContextHandler wraps an slog.Handler and adds the attributes stored on the
// record's context.
type ContextHandler struct {
	underlying slog.Handler
}

// NewContextHandler wraps h.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{underlying: h}
}

// Enabled defers to the wrapped handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.underlying.Enabled(ctx, level)
}

// Handle adds the context attributes and passes the record on.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := attrsFromContext(ctx); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.underlying.Handle(ctx, r)
}

// WithAttrs must return a ContextHandler so context attributes survive
// logger.With chains.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{underlying: h.underlying.WithAttrs(attrs)}
}

// WithGroup keeps the wrapper for the same reason as WithAttrs.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{underlying: h.underlying.WithGroup(name)}
}
