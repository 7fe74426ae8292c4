package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zeroaltitude/openclaw/internal/providers"
	"github.com/zeroaltitude/openclaw/internal/tracing"
)

// emitSubagentSpan records the root span for one subagent run, nested under
// the parent agent's root span so trace viewers show the subagent as a
// child of the turn that spawned it.
func (sm *SubagentManager) emitSubagentSpan(ctx context.Context, spanID uuid.UUID, start time.Time, task *SubagentTask, model, finalContent string) {
	traceID := tracing.TraceIDFromContext(ctx)
	collector := tracing.CollectorFromContext(ctx)
	if collector == nil || traceID == uuid.Nil {
		return
	}

	now := time.Now().UTC()
	span := tracing.SpanData{
		ID:         spanID,
		TraceID:    traceID,
		SpanType:   tracing.SpanTypeAgent,
		Name:       fmt.Sprintf("subagent:%s", task.Label),
		StartTime:  start,
		EndTime:    &now,
		DurationMS: int(now.Sub(start).Milliseconds()),
		Model:      model,
		Status:     tracing.SpanStatusCompleted,
		Level:      tracing.SpanLevelDefault,
		CreatedAt:  now,
	}
	if parentID := tracing.ParentSpanIDFromContext(ctx); parentID != uuid.Nil {
		span.ParentSpanID = &parentID
	}
	if task.Status == TaskStatusFailed {
		span.Status = tracing.SpanStatusError
		span.Error = truncateStr(finalContent, 200)
	}
	limit := 500
	if collector.Verbose() {
		limit = 100000
	}
	span.OutputPreview = truncateStr(finalContent, limit)

	collector.EmitSpan(span)
}

// emitLLMSpan records one LLM call made during a subagent's tool loop.
func (sm *SubagentManager) emitLLMSpan(ctx context.Context, start time.Time, iteration int, model string, messages []providers.Message, resp *providers.ChatResponse, callErr error) {
	traceID := tracing.TraceIDFromContext(ctx)
	collector := tracing.CollectorFromContext(ctx)
	if collector == nil || traceID == uuid.Nil {
		return
	}

	now := time.Now().UTC()
	span := tracing.SpanData{
		TraceID:    traceID,
		SpanType:   tracing.SpanTypeLLMCall,
		Name:       fmt.Sprintf("%s #%d", sm.provider.Name(), iteration),
		StartTime:  start,
		EndTime:    &now,
		DurationMS: int(now.Sub(start).Milliseconds()),
		Model:      model,
		Provider:   sm.provider.Name(),
		Status:     tracing.SpanStatusCompleted,
		Level:      tracing.SpanLevelDefault,
		CreatedAt:  now,
	}
	if parentID := tracing.ParentSpanIDFromContext(ctx); parentID != uuid.Nil {
		span.ParentSpanID = &parentID
	}

	if callErr != nil {
		span.Status = tracing.SpanStatusError
		span.Error = callErr.Error()
	} else if resp != nil {
		if resp.Usage != nil {
			span.InputTokens = resp.Usage.PromptTokens
			span.OutputTokens = resp.Usage.CompletionTokens
		}
		span.FinishReason = resp.FinishReason
		limit := 500
		if collector.Verbose() {
			limit = 100000
		}
		span.OutputPreview = truncateStr(resp.Content, limit)
	}

	collector.EmitSpan(span)
}

// emitToolSpan records one tool call made during a subagent's tool loop.
func (sm *SubagentManager) emitToolSpan(ctx context.Context, start time.Time, toolName, toolCallID, input, outputForLLM string, isError bool) {
	traceID := tracing.TraceIDFromContext(ctx)
	collector := tracing.CollectorFromContext(ctx)
	if collector == nil || traceID == uuid.Nil {
		return
	}

	now := time.Now().UTC()
	previewLimit := 500
	if collector.Verbose() {
		previewLimit = 100000
	}
	span := tracing.SpanData{
		TraceID:       traceID,
		SpanType:      tracing.SpanTypeToolCall,
		Name:          toolName,
		StartTime:     start,
		EndTime:       &now,
		DurationMS:    int(now.Sub(start).Milliseconds()),
		ToolName:      toolName,
		ToolCallID:    toolCallID,
		InputPreview:  truncateStr(input, previewLimit),
		OutputPreview: truncateStr(outputForLLM, previewLimit),
		Status:        tracing.SpanStatusCompleted,
		Level:         tracing.SpanLevelDefault,
		CreatedAt:     now,
	}
	if parentID := tracing.ParentSpanIDFromContext(ctx); parentID != uuid.Nil {
		span.ParentSpanID = &parentID
	}
	if isError {
		span.Status = tracing.SpanStatusError
		span.Error = truncateStr(outputForLLM, 200)
	}

	collector.EmitSpan(span)
}
