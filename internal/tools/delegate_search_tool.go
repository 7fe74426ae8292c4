package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeroaltitude/openclaw/internal/config"
)

// ============================================================
// delegate_search
// ============================================================

// DelegateSearchTool lets an agent find a delegation target by keyword
// instead of requiring every agent be listed verbatim in DELEGATION.md —
// used once the fleet grows past the point a flat list is practical.
type DelegateSearchTool struct {
	cfg *config.Config
}

func NewDelegateSearchTool(cfg *config.Config) *DelegateSearchTool {
	return &DelegateSearchTool{cfg: cfg}
}

func (t *DelegateSearchTool) Name() string { return "delegate_search" }

func (t *DelegateSearchTool) Description() string {
	return "Search configured agents by key, display name, or expertise description to find a delegation target."
}

func (t *DelegateSearchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Keywords describing the expertise or task you need handled",
			},
		},
		"required": []string{"query"},
	}
}

func (t *DelegateSearchTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	query, _ := args["query"].(string)
	if query == "" {
		return ErrorResult("delegate_search requires a 'query' argument")
	}

	self := ToolAgentKeyFromCtx(ctx)
	terms := strings.Fields(strings.ToLower(query))

	var matches []string
	for _, key := range t.cfg.AgentKeys() {
		if key == self {
			continue
		}
		spec, ok := t.cfg.AgentSpec(key)
		if !ok {
			continue
		}
		haystack := strings.ToLower(key + " " + spec.DisplayName + " " + spec.Description)
		score := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				score++
			}
		}
		if score > 0 {
			label := key
			if spec.DisplayName != "" {
				label += fmt.Sprintf(" (%s)", spec.DisplayName)
			}
			if spec.Description != "" {
				label += fmt.Sprintf(" — %s", spec.Description)
			}
			matches = append(matches, label)
		}
	}

	if len(matches) == 0 {
		return NewResult(fmt.Sprintf("No agents matched %q. Use delegate_search with broader terms, or handle the task yourself.", query))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Agents matching %q:\n", query))
	for _, m := range matches {
		sb.WriteString(fmt.Sprintf("- %s\n", m))
	}
	sb.WriteString("\nUse delegate(agent=\"<key>\", task=\"...\") with one of the keys above.")
	return NewResult(sb.String())
}
