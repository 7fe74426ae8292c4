// Package tracing records agent/LLM/tool call spans for one chat turn and
// exports them through OpenTelemetry. Unlike a generic OTel instrumentation
// shim, spans here carry the preview/token fields the agent loop already
// computes (prompt/tool previews, token counts, finish reasons) so a single
// EmitSpan call is enough to both export to the configured OTLP backend and
// keep a human-readable record of what the agent did.
package tracing

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// SpanType identifies what kind of work a span represents.
type SpanType string

const (
	SpanTypeAgent    SpanType = "agent"
	SpanTypeLLMCall  SpanType = "llm_call"
	SpanTypeToolCall SpanType = "tool_call"
)

// SpanStatus mirrors OTel's ok/error status in a string our callers can set directly.
type SpanStatus string

const (
	SpanStatusCompleted SpanStatus = "completed"
	SpanStatusError     SpanStatus = "error"
)

// SpanLevelDefault is the level used for spans with nothing noteworthy to flag.
const SpanLevelDefault = "DEFAULT"

// SpanData is a single recorded span. Callers fill it in after the work it
// describes has finished (StartTime/EndTime are both known) and hand it to
// Collector.EmitSpan.
type SpanData struct {
	ID           uuid.UUID
	TraceID      uuid.UUID
	ParentSpanID *uuid.UUID
	AgentID      *uuid.UUID

	SpanType SpanType
	Name     string

	StartTime  time.Time
	EndTime    *time.Time
	DurationMS int

	Model    string
	Provider string

	ToolName   string
	ToolCallID string

	InputPreview  string
	OutputPreview string

	InputTokens  int
	OutputTokens int
	FinishReason string

	Status   SpanStatus
	Level    string
	Error    string
	Metadata json.RawMessage

	CreatedAt time.Time
}

// Collector turns SpanData into OTel spans. It has no buffering of its own —
// batching/export is the job of the global OTel tracer provider; no code in
// this repository installs an exporter on it.
type Collector struct {
	tracer  oteltrace.Tracer
	verbose bool

	mu      sync.RWMutex
	traceCtx map[uuid.UUID]context.Context // traceID -> root context carrying the trace's span context
}

// NewCollector returns a Collector that emits spans under the given
// instrumentation scope name via the global OTel tracer provider.
// verbose controls whether full (untruncated upstream) previews are kept;
// callers already truncate more aggressively when this is false.
func NewCollector(scopeName string, verbose bool) *Collector {
	if scopeName == "" {
		scopeName = "openclaw/agent"
	}
	return &Collector{
		tracer:   otel.Tracer(scopeName),
		verbose:  verbose,
		traceCtx: make(map[uuid.UUID]context.Context),
	}
}

// Verbose reports whether full-length previews should be captured.
func (c *Collector) Verbose() bool {
	if c == nil {
		return false
	}
	return c.verbose
}

// EmitSpan starts and immediately ends an OTel span using the timing and
// attributes already computed by the caller.
func (c *Collector) EmitSpan(span SpanData) {
	if c == nil {
		return
	}

	ctx := c.rootContext(span.TraceID)
	opts := []oteltrace.SpanStartOption{
		oteltrace.WithTimestamp(span.StartTime),
		oteltrace.WithAttributes(spanAttributes(span)...),
	}
	switch span.SpanType {
	case SpanTypeLLMCall:
		opts = append(opts, oteltrace.WithSpanKind(oteltrace.SpanKindClient))
	case SpanTypeToolCall:
		opts = append(opts, oteltrace.WithSpanKind(oteltrace.SpanKindInternal))
	default:
		opts = append(opts, oteltrace.WithSpanKind(oteltrace.SpanKindServer))
	}

	_, otSpan := c.tracer.Start(ctx, span.Name, opts...)
	if span.Status == SpanStatusError {
		otSpan.SetStatus(codes.Error, span.Error)
	} else {
		otSpan.SetStatus(codes.Ok, "")
	}
	end := span.EndTime
	if end == nil {
		now := time.Now().UTC()
		end = &now
	}
	otSpan.End(oteltrace.WithTimestamp(*end))
}

// rootContext returns (creating if needed) the base context new spans for
// traceID are started from, so sibling spans across a trace's lifetime
// share the same OTel trace ID even though each is started independently.
func (c *Collector) rootContext(traceID uuid.UUID) context.Context {
	c.mu.RLock()
	ctx, ok := c.traceCtx[traceID]
	c.mu.RUnlock()
	if ok {
		return ctx
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx, ok := c.traceCtx[traceID]; ok {
		return ctx
	}
	ctx = context.Background()
	c.traceCtx[traceID] = ctx
	return ctx
}

// forgetTrace drops the cached root context for a finished trace.
func (c *Collector) forgetTrace(traceID uuid.UUID) {
	c.mu.Lock()
	delete(c.traceCtx, traceID)
	c.mu.Unlock()
}

func spanAttributes(span SpanData) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("openclaw.span_type", string(span.SpanType)),
		attribute.Int64("openclaw.duration_ms", int64(span.DurationMS)),
	}
	if span.Model != "" {
		attrs = append(attrs, attribute.String("openclaw.model", span.Model))
	}
	if span.Provider != "" {
		attrs = append(attrs, attribute.String("openclaw.provider", span.Provider))
	}
	if span.ToolName != "" {
		attrs = append(attrs, attribute.String("openclaw.tool_name", span.ToolName))
	}
	if span.InputTokens > 0 {
		attrs = append(attrs, attribute.Int("openclaw.input_tokens", span.InputTokens))
	}
	if span.OutputTokens > 0 {
		attrs = append(attrs, attribute.Int("openclaw.output_tokens", span.OutputTokens))
	}
	if span.FinishReason != "" {
		attrs = append(attrs, attribute.String("openclaw.finish_reason", span.FinishReason))
	}
	if span.InputPreview != "" {
		attrs = append(attrs, attribute.String("openclaw.input_preview", span.InputPreview))
	}
	if span.OutputPreview != "" {
		attrs = append(attrs, attribute.String("openclaw.output_preview", span.OutputPreview))
	}
	if span.AgentID != nil {
		attrs = append(attrs, attribute.String("openclaw.agent_id", span.AgentID.String()))
	}
	return attrs
}
