package tools

import (
	"context"
	"fmt"
)

// SpawnTool exposes SubagentManager.Spawn as an async, fire-and-forget tool:
// the caller gets an acknowledgement immediately and the subagent's result is
// announced back to the session once it finishes.
type SpawnTool struct {
	mgr          *SubagentManager
	defaultLabel string
	maxDepth     int // 0 = use mgr.config.MaxSpawnDepth
}

// NewSpawnTool wraps mgr for async spawning. maxDepthOverride, if non-zero,
// caps how deep this tool will let a caller spawn regardless of mgr's config.
func NewSpawnTool(mgr *SubagentManager, defaultLabel string, maxDepthOverride int) *SpawnTool {
	return &SpawnTool{mgr: mgr, defaultLabel: defaultLabel, maxDepth: maxDepthOverride}
}

func (t *SpawnTool) Name() string { return "spawn" }

func (t *SpawnTool) Description() string {
	return "Spawn a background subagent to work on a task in parallel. Returns immediately; " +
		"the subagent's result is announced back to this conversation when it finishes. " +
		"Use this for tasks that can run while you keep doing other work."
}

func (t *SpawnTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task": map[string]interface{}{
				"type":        "string",
				"description": "A clear, self-contained description of the task for the subagent",
			},
			"label": map[string]interface{}{
				"type":        "string",
				"description": "Short label to identify this subagent in status updates",
			},
			"model": map[string]interface{}{
				"type":        "string",
				"description": "Optional model override for this subagent",
			},
		},
		"required": []string{"task"},
	}
}

func (t *SpawnTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	task, _ := args["task"].(string)
	if task == "" {
		return ErrorResult("spawn requires a 'task' argument")
	}
	label, _ := args["label"].(string)
	if label == "" {
		label = t.defaultLabel
	}
	model, _ := args["model"].(string)

	if d := ToolSubagentDepthFromCtx(ctx); t.maxDepth > 0 && d >= t.maxDepth {
		return ErrorResult(fmt.Sprintf("spawn failed: spawn depth limit reached (%d/%d)", d, t.maxDepth))
	}

	parentID := ToolAgentKeyFromCtx(ctx)
	depth := t.effectiveDepth(ctx)
	channel := ToolChannelFromCtx(ctx)
	chatID := ToolChatIDFromCtx(ctx)
	peerKind := ToolPeerKindFromCtx(ctx)
	callback := ToolAsyncCBFromCtx(ctx)

	msg, err := t.mgr.Spawn(ctx, parentID, depth, task, label, model, channel, chatID, peerKind, callback)
	if err != nil {
		return ErrorResult(fmt.Sprintf("spawn failed: %s", err))
	}
	return SilentResult(msg)
}

func (t *SpawnTool) effectiveDepth(ctx context.Context) int {
	depth := ToolSubagentDepthFromCtx(ctx)
	if t.maxDepth > 0 && depth > t.maxDepth {
		return t.maxDepth
	}
	return depth
}

// SubagentTool exposes SubagentManager.RunSync as a blocking tool: the
// caller waits for the subagent to finish and gets its result directly,
// instead of a later announce.
type SubagentTool struct {
	mgr          *SubagentManager
	defaultLabel string
	maxDepth     int
}

// NewSubagentTool wraps mgr for synchronous (blocking) delegation.
func NewSubagentTool(mgr *SubagentManager, defaultLabel string, maxDepthOverride int) *SubagentTool {
	return &SubagentTool{mgr: mgr, defaultLabel: defaultLabel, maxDepth: maxDepthOverride}
}

func (t *SubagentTool) Name() string { return "subagent" }

func (t *SubagentTool) Description() string {
	return "Run a subagent synchronously and wait for its result. Use this when you need the " +
		"subagent's output before you can continue, instead of spawn's fire-and-forget behavior."
}

func (t *SubagentTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task": map[string]interface{}{
				"type":        "string",
				"description": "A clear, self-contained description of the task for the subagent",
			},
			"label": map[string]interface{}{
				"type":        "string",
				"description": "Short label to identify this subagent in logs and traces",
			},
		},
		"required": []string{"task"},
	}
}

func (t *SubagentTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	task, _ := args["task"].(string)
	if task == "" {
		return ErrorResult("subagent requires a 'task' argument")
	}
	label, _ := args["label"].(string)
	if label == "" {
		label = t.defaultLabel
	}

	parentID := ToolAgentKeyFromCtx(ctx)
	depth := ToolSubagentDepthFromCtx(ctx)
	if t.maxDepth > 0 && depth > t.maxDepth {
		depth = t.maxDepth
	}
	channel := ToolChannelFromCtx(ctx)
	chatID := ToolChatIDFromCtx(ctx)

	result, iterations, err := t.mgr.RunSync(ctx, parentID, depth, task, label, channel, chatID)
	if err != nil {
		return ErrorResult(fmt.Sprintf("subagent failed after %d iterations: %s", iterations, err))
	}
	return NewResult(result)
}
