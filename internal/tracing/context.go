package tracing

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	ctxKeyTraceID ctxKey = iota
	ctxKeyCollector
	ctxKeyParentSpanID
	ctxKeyAnnounceParentSpanID
	ctxKeyDelegateParentTraceID
)

// WithTraceID attaches the active trace ID to ctx.
func WithTraceID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKeyTraceID, id)
}

// TraceIDFromContext returns the active trace ID, or uuid.Nil if none is set.
func TraceIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxKeyTraceID).(uuid.UUID)
	return id
}

// WithCollector attaches the span collector to ctx.
func WithCollector(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, ctxKeyCollector, c)
}

// CollectorFromContext returns the active collector, or nil if tracing is off.
func CollectorFromContext(ctx context.Context) *Collector {
	c, _ := ctx.Value(ctxKeyCollector).(*Collector)
	return c
}

// WithParentSpanID attaches the span ID that subsequent spans should nest under.
func WithParentSpanID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKeyParentSpanID, id)
}

// ParentSpanIDFromContext returns the current parent span ID, or uuid.Nil.
func ParentSpanIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxKeyParentSpanID).(uuid.UUID)
	return id
}

// WithAnnounceParentSpanID marks the root span an announce (out-of-band) run
// should nest under, distinct from the normal parent span chain.
func WithAnnounceParentSpanID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKeyAnnounceParentSpanID, id)
}

// AnnounceParentSpanIDFromContext returns the announce parent span ID, or uuid.Nil.
func AnnounceParentSpanIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxKeyAnnounceParentSpanID).(uuid.UUID)
	return id
}

// WithDelegateParentTraceID records the trace ID a delegated (subagent) run
// was spawned from, so the delegate's own trace can reference its caller.
func WithDelegateParentTraceID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKeyDelegateParentTraceID, id)
}

// DelegateParentTraceIDFromContext returns the delegating trace ID, or uuid.Nil.
func DelegateParentTraceIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxKeyDelegateParentTraceID).(uuid.UUID)
	return id
}
