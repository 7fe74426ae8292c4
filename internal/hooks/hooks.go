// Package hooks implements the agent loop's plugin-hook fan-out: a small
// set of named extension points that content-modifying handlers fold over
// sequentially, and observational handlers fan out to in parallel.
package hooks

import "encoding/json"

// HookContext is the value passed to every handler. Which fields are
// populated depends on the event — a loop_iteration_start dispatch has no
// Content, a delegation.completed evaluation has no Messages.
type HookContext struct {
	Event          string
	SourceAgentKey string
	TargetAgentKey string
	UserID         string
	Task           string
	Content        string

	Messages     []map[string]any
	SystemPrompt string
	Tools        []string
}

// HookResult is what a handler returns. Sequential modifying hooks use
// Messages/SystemPrompt/Tools/Content/Block/BlockReason; quality gates use
// Passed/Feedback.
type HookResult struct {
	Passed   bool
	Feedback string

	Messages     []map[string]any
	SystemPrompt string
	Tools        []string
	Content      string
	Block        bool
	BlockReason  string
}

// HookConfig describes one configured quality gate or plugin handler,
// sourced from an agent's config.json entry (agents.list.<key>.qualityGates).
type HookConfig struct {
	Type           string          `json:"type"`   // handler name, e.g. "min_length", "keyword_deny", "regex_match"
	Event          string          `json:"event"`  // hook point this gate fires on, e.g. "delegation.completed"
	Config         json.RawMessage `json:"config,omitempty"`
	MaxRetries     int             `json:"maxRetries,omitempty"`
	BlockOnFailure bool            `json:"blockOnFailure,omitempty"`
}
