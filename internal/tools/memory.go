package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeroaltitude/openclaw/internal/memory"
	"github.com/zeroaltitude/openclaw/internal/store"
)

// MemorySearchTool lets the agent recall previously remembered facts about
// the current user.
type MemorySearchTool struct {
	mgr *memory.Manager
}

func NewMemorySearchTool(mgr *memory.Manager) *MemorySearchTool {
	return &MemorySearchTool{mgr: mgr}
}

func (t *MemorySearchTool) Name() string { return "memory_search" }

func (t *MemorySearchTool) Description() string {
	return "Search your long-term memory for facts previously remembered about this user or conversation."
}

func (t *MemorySearchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "What to search memory for",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Max results to return (default 6)",
			},
		},
		"required": []string{"query"},
	}
}

func (t *MemorySearchTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	if t.mgr == nil {
		return ErrorResult("memory is not enabled")
	}
	query, _ := args["query"].(string)
	if query == "" {
		return ErrorResult("memory_search requires a 'query' argument")
	}
	limit := 0
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	userID := store.UserIDFromContext(ctx)
	entries, err := t.mgr.Search(ctx, userID, query, limit)
	if err != nil {
		return ErrorResult(fmt.Sprintf("memory search failed: %s", err))
	}
	if len(entries) == 0 {
		return NewResult("No matching memories found.")
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "[%s] %s\n", e.ID, e.Content)
	}
	return NewResult(sb.String())
}

// MemoryGetTool fetches a single memory entry by ID (e.g. to quote it back
// to the user or check whether it's stale before updating it).
type MemoryGetTool struct {
	mgr *memory.Manager
}

func NewMemoryGetTool(mgr *memory.Manager) *MemoryGetTool {
	return &MemoryGetTool{mgr: mgr}
}

func (t *MemoryGetTool) Name() string { return "memory_get" }

func (t *MemoryGetTool) Description() string {
	return "Fetch one previously remembered fact by its memory_search ID."
}

func (t *MemoryGetTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "Memory entry ID, as returned by memory_search",
			},
		},
		"required": []string{"id"},
	}
}

func (t *MemoryGetTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	if t.mgr == nil {
		return ErrorResult("memory is not enabled")
	}
	id, _ := args["id"].(string)
	if id == "" {
		return ErrorResult("memory_get requires an 'id' argument")
	}

	userID := store.UserIDFromContext(ctx)
	entry, err := t.mgr.Get(ctx, userID, id)
	if err != nil {
		return ErrorResult(fmt.Sprintf("memory_get failed: %s", err))
	}
	return NewResult(entry.Content)
}
