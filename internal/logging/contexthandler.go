package logging

import (
	"context"
	"log/slog"
)

type contextKey int

const (
	sessionKey contextKey = iota
	frameKey
)

// WithSession tags records logged with ctx with a session ID.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// WithFrame tags records logged with ctx with a frame index.
func WithFrame(ctx context.Context, frame uint) context.Context {
	return context.WithValue(ctx, frameKey, frame)
}

// contextAttrs extracts the attributes stored by WithSession and WithFrame.
func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	if id, ok := ctx.Value(sessionKey).(string); ok {
		attrs = append(attrs, slog.String("session", id))
	}
	if frame, ok := ctx.Value(frameKey).(uint); ok {
		attrs = append(attrs, slog.Uint64("frame", uint64(frame)))
	}
	return attrs
}

// ContextHandler wraps another handler and adds session and frame
// attributes found on the record's context.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler wraps inner.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

// Enabled delegates to the inner handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds context attributes and delegates to the inner handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := contextAttrs(ctx); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler with the given attributes.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup returns a new ContextHandler with the given group.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}
