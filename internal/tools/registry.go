package tools

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/zeroaltitude/openclaw/internal/providers"
)

// Tool is the contract every built-in and bridged (MCP, skill) tool implements.
// Parameters returns a JSON-schema-shaped map describing the tool's arguments,
// matching ToolFunctionSchema.Parameters.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) *Result
}

// Registry holds the set of tools available to an agent and mediates every
// execution so cross-cutting concerns (rate limiting, output scrubbing,
// per-call context) live in one place instead of each tool.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string // registration order, for stable ProviderDefs output

	rateLimiter *ToolRateLimiter
	scrub       bool
}

// NewRegistry creates an empty tool registry with output scrubbing enabled
// by default (matching ToolsConfig.ScrubCredentials' default of true).
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
		scrub: true,
	}
}

// Register adds a tool, replacing any existing tool with the same name.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := tool.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Unregister removes a tool by name. Safe to call for a name that isn't registered.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns every registered tool name, in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// SetRateLimiter installs a rate limiter applied to every Execute call.
// Pass nil to disable rate limiting.
func (r *Registry) SetRateLimiter(rl *ToolRateLimiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rateLimiter = rl
}

// SetScrubbing toggles automatic credential redaction on tool output.
func (r *Registry) SetScrubbing(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrub = enabled
}

// ProviderDefs returns the full tool set as provider-facing definitions,
// in registration order.
func (r *Registry) ProviderDefs() []providers.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]providers.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, ToProviderDef(r.tools[name]))
	}
	return defs
}

// ToProviderDef converts a Tool into its provider-facing schema.
func ToProviderDef(t Tool) providers.ToolDefinition {
	return providers.ToolDefinition{
		Type: "function",
		Function: providers.ToolFunctionSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}

// Execute runs a tool by name with no channel/session context attached.
// Used by callers (e.g. subagents) that don't route through a chat session.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) *Result {
	return r.execute(ctx, name, args)
}

// ExecuteWithContext runs a tool by name, attaching channel/session identifiers
// to the context so the tool can read them via the ToolXFromCtx helpers.
// extra is reserved for call-specific data (e.g. streaming callbacks) threaded
// in by the caller before invoking this method; it is accepted for call-site
// symmetry with the teacher's signature and is otherwise unused here.
func (r *Registry) ExecuteWithContext(ctx context.Context, name string, args map[string]interface{}, channel, chatID, peerKind, sessionKey string, extra any) *Result {
	ctx = WithToolChannel(ctx, channel)
	ctx = WithToolChatID(ctx, chatID)
	ctx = WithToolPeerKind(ctx, peerKind)
	ctx = WithToolSandboxKey(ctx, sessionKey) // sandboxKey == sessionKey in registry
	return r.execute(ctx, name, args)
}

func (r *Registry) execute(ctx context.Context, name string, args map[string]interface{}) *Result {
	r.mu.RLock()
	tool, ok := r.tools[name]
	limiter := r.rateLimiter
	scrub := r.scrub
	r.mu.RUnlock()

	if !ok {
		return ErrorResult("unknown tool: " + name)
	}

	if limiter != nil {
		sessionKey := ToolSandboxKeyFromCtx(ctx)
		if !limiter.Allow(sessionKey) {
			return ErrorResult("tool rate limit exceeded for this session, try again later")
		}
	}

	result := tool.Execute(ctx, args)
	if result == nil {
		result = NewResult("")
	}
	if scrub {
		result.ForLLM = scrubSecrets(result.ForLLM)
		result.ForUser = scrubSecrets(result.ForUser)
	}
	return result
}

// --- rate limiting ---

// ToolRateLimiter caps tool executions per session within a rolling hour,
// mirroring ToolsConfig.RateLimitPerHour.
type ToolRateLimiter struct {
	mu          sync.Mutex
	limitPerHr  int
	windows     map[string][]time.Time
}

// NewToolRateLimiter creates a limiter allowing limitPerHour executions per
// session key per rolling hour. A non-positive limit disables rate limiting
// (Allow always returns true).
func NewToolRateLimiter(limitPerHour int) *ToolRateLimiter {
	return &ToolRateLimiter{
		limitPerHr: limitPerHour,
		windows:    make(map[string][]time.Time),
	}
}

// Allow reports whether sessionKey may execute another tool call now,
// recording the call if so.
func (l *ToolRateLimiter) Allow(sessionKey string) bool {
	if l.limitPerHr <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Hour)
	calls := l.windows[sessionKey]

	kept := calls[:0]
	for _, t := range calls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.limitPerHr {
		l.windows[sessionKey] = kept
		return false
	}
	l.windows[sessionKey] = append(kept, now)
	return true
}

// --- credential scrubbing ---

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
	regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password)\s*[:=]\s*["']?[a-zA-Z0-9_\-./+]{12,}["']?`),
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_\-.]{10,}`),
	regexp.MustCompile(`xox[baprs]-[a-zA-Z0-9-]{10,}`),
}

// scrubSecrets redacts substrings that look like API keys, bearer tokens, or
// other long-lived credentials before tool output reaches the LLM or user.
func scrubSecrets(s string) string {
	if s == "" {
		return s
	}
	for _, re := range secretPatterns {
		s = re.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}
