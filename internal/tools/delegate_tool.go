package tools

import (
	"context"
	"fmt"
)

// ============================================================
// delegate
// ============================================================

// DelegateTool exposes DelegateManager to the LLM as a callable tool.
// The agent identity comes from the request context (WithToolAgentKey),
// set by the agent loop before every tool call.
type DelegateTool struct {
	manager *DelegateManager
}

func NewDelegateTool(manager *DelegateManager) *DelegateTool {
	return &DelegateTool{manager: manager}
}

func (t *DelegateTool) Name() string { return "delegate" }

func (t *DelegateTool) Description() string {
	return "Hand a task off to another configured agent. Use sync mode (default) when you need the result " +
		"before continuing; use async mode to keep working while the other agent runs in the background — " +
		"its result will be announced back to you when ready."
}

func (t *DelegateTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"agent": map[string]interface{}{
				"type":        "string",
				"description": "The target agent's key, as listed in DELEGATION.md",
			},
			"task": map[string]interface{}{
				"type":        "string",
				"description": "A clear, self-contained description of the task for the target agent",
			},
			"context": map[string]interface{}{
				"type":        "string",
				"description": "Optional extra background the target agent needs but shouldn't be asked to infer",
			},
			"mode": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"sync", "async"},
				"description": "sync (default) waits for the result; async runs in the background and announces later",
			},
		},
		"required": []string{"agent", "task"},
	}
}

func (t *DelegateTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	agentKey, _ := args["agent"].(string)
	task, _ := args["task"].(string)
	if agentKey == "" || task == "" {
		return ErrorResult("delegate requires both 'agent' and 'task' arguments")
	}

	opts := DelegateOpts{
		TargetAgentKey: agentKey,
		Task:           task,
		Mode:           "sync",
	}
	if c, ok := args["context"].(string); ok {
		opts.Context = c
	}
	if m, ok := args["mode"].(string); ok && m != "" {
		opts.Mode = m
	}

	if opts.Mode == "async" {
		result, err := t.manager.DelegateAsync(ctx, opts)
		if err != nil {
			return ErrorResult(fmt.Sprintf("delegation failed: %s", err))
		}
		return SilentResult(fmt.Sprintf(
			"Delegation to %q started in the background (id %s). You will be notified when it completes — continue with other work in the meantime.",
			agentKey, result.DelegationID))
	}

	result, err := t.manager.Delegate(ctx, opts)
	if err != nil {
		return ErrorResult(fmt.Sprintf("delegation failed: %s", err))
	}
	return NewResult(result.Content)
}
