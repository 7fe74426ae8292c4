package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// HandlerFunc is a registered hook handler. For sequential modifying hooks
// it returns the (possibly revised) HookContext fields via HookResult; for
// fire-and-forget hooks the result is logged but otherwise discarded.
type HandlerFunc func(ctx context.Context, hctx HookContext) (HookResult, error)

// GateFunc is a built-in quality-gate evaluator. gate.Config carries the
// gate's type-specific settings (e.g. {"minChars": 200}).
type GateFunc func(ctx context.Context, gate HookConfig, hctx HookContext) (HookResult, error)

type registeredHandler struct {
	name string
	fn   HandlerFunc
}

// Engine dispatches the six named agent-loop hook points plus ad hoc
// quality gates evaluated against a single event (e.g. "delegation.completed").
type Engine struct {
	mu       sync.RWMutex
	handlers map[string][]registeredHandler // loop event -> handlers, registration order
	gates    map[string]GateFunc            // gate type -> built-in evaluator
}

// NewEngine creates an Engine with the built-in quality-gate evaluators
// (min_length, keyword_deny, regex_match) already registered.
func NewEngine() *Engine {
	e := &Engine{
		handlers: make(map[string][]registeredHandler),
		gates:    make(map[string]GateFunc),
	}
	e.gates["min_length"] = evalMinLength
	e.gates["keyword_deny"] = evalKeywordDeny
	e.gates["regex_match"] = evalRegexMatch
	return e
}

// Register adds a handler for a named loop hook point. Handlers fire in
// registration order.
func (e *Engine) Register(event, name string, fn HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[event] = append(e.handlers[event], registeredHandler{name: name, fn: fn})
}

// RegisterGate adds (or overrides) a built-in quality-gate evaluator.
func (e *Engine) RegisterGate(gateType string, fn GateFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gates[gateType] = fn
}

// RunSequential folds every before_llm_call/after_llm_call/before_response_emit
// handler over hctx in registration order. A handler's non-empty fields
// overwrite the running context; Block=true short-circuits immediately.
func (e *Engine) RunSequential(ctx context.Context, event string, hctx HookContext) (HookContext, error) {
	e.mu.RLock()
	handlers := append([]registeredHandler(nil), e.handlers[event]...)
	e.mu.RUnlock()

	for _, h := range handlers {
		res, err := h.fn(ctx, hctx)
		if err != nil {
			return hctx, fmt.Errorf("hook %q (%s): %w", h.name, event, err)
		}
		if res.Block {
			return hctx, fmt.Errorf("LLM call blocked by plugin: %s", res.BlockReason)
		}
		if res.Messages != nil {
			hctx.Messages = res.Messages
		}
		if res.SystemPrompt != "" {
			hctx.SystemPrompt = res.SystemPrompt
		}
		if res.Tools != nil {
			hctx.Tools = res.Tools
		}
		if res.Content != "" {
			hctx.Content = res.Content
		}
	}
	return hctx, nil
}

// RunParallel fires every handler for a fire-and-forget event
// (context_assembled, loop_iteration_start/end, lifecycle events) without
// waiting for completion. A failing handler logs a warning; it never
// interrupts the loop or the other handlers.
func (e *Engine) RunParallel(ctx context.Context, event string, hctx HookContext) {
	e.mu.RLock()
	handlers := append([]registeredHandler(nil), e.handlers[event]...)
	e.mu.RUnlock()

	for _, h := range handlers {
		go func(h registeredHandler) {
			if _, err := h.fn(ctx, hctx); err != nil {
				slog.Warn("hook handler failed", "hook", h.name, "event", event, "error", err)
			}
		}(h)
	}
}

// EvaluateSingleHook runs one configured quality gate's built-in evaluator
// against hctx. Unknown gate types pass open, matching the "don't hard-fail
// the delegation on a misconfigured gate" policy applied by the delegation
// manager's retry loop.
func (e *Engine) EvaluateSingleHook(ctx context.Context, gate HookConfig, hctx HookContext) (HookResult, error) {
	e.mu.RLock()
	fn, ok := e.gates[gate.Type]
	e.mu.RUnlock()
	if !ok {
		slog.Warn("quality gate: unknown type, passing open", "type", gate.Type)
		return HookResult{Passed: true}, nil
	}
	hctx.Event = gate.Event
	return fn(ctx, gate, hctx)
}

func gateConfigInt(raw json.RawMessage, key string, fallback int) int {
	if len(raw) == 0 {
		return fallback
	}
	var m map[string]any
	if json.Unmarshal(raw, &m) != nil {
		return fallback
	}
	v, ok := m[key].(float64)
	if !ok {
		return fallback
	}
	return int(v)
}

func gateConfigStrings(raw json.RawMessage, key string) []string {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if json.Unmarshal(raw, &m) != nil {
		return nil
	}
	arr, _ := m[key].([]any)
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// evalMinLength fails the gate when the delegated result is shorter than
// the configured minChars (default 50).
func evalMinLength(_ context.Context, gate HookConfig, hctx HookContext) (HookResult, error) {
	min := gateConfigInt(gate.Config, "minChars", 50)
	if len(strings.TrimSpace(hctx.Content)) < min {
		return HookResult{Passed: false, Feedback: fmt.Sprintf("response is shorter than the required %d characters", min)}, nil
	}
	return HookResult{Passed: true}, nil
}

// evalKeywordDeny fails the gate when the content contains any configured
// denied substring (case-insensitive), e.g. apology boilerplate or "I can't".
func evalKeywordDeny(_ context.Context, gate HookConfig, hctx HookContext) (HookResult, error) {
	denied := gateConfigStrings(gate.Config, "deny")
	lower := strings.ToLower(hctx.Content)
	for _, word := range denied {
		if word == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(word)) {
			return HookResult{Passed: false, Feedback: fmt.Sprintf("response contains denied phrase %q", word)}, nil
		}
	}
	return HookResult{Passed: true}, nil
}

// evalRegexMatch fails the gate when the content does not match the
// configured "pattern".
func evalRegexMatch(_ context.Context, gate HookConfig, hctx HookContext) (HookResult, error) {
	pattern := ""
	if len(gate.Config) > 0 {
		var m map[string]any
		if json.Unmarshal(gate.Config, &m) == nil {
			pattern, _ = m["pattern"].(string)
		}
	}
	if pattern == "" {
		return HookResult{Passed: true}, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return HookResult{Passed: true}, fmt.Errorf("invalid regex_match pattern: %w", err)
	}
	if !re.MatchString(hctx.Content) {
		return HookResult{Passed: false, Feedback: fmt.Sprintf("response does not match required pattern %q", pattern)}, nil
	}
	return HookResult{Passed: true}, nil
}
