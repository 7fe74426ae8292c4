package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Agent is anything that can run a single conversational turn.
// *Loop is the only implementation; the interface exists so Router and
// its callers (gateway consumers, cron, delegate/subagent tools) don't
// need to depend on the concrete Loop type.
type Agent interface {
	ID() string
	Model() string
	IsRunning() bool
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}

// ResolverFunc builds (or looks up) the Agent for a given agent key.
// Resolution is expected to be cheap to call repeatedly — Router caches
// the result so a resolver that does real work (reading config, building
// a Loop) only pays that cost once per key until invalidated.
type ResolverFunc func(agentKey string) (Agent, error)

type agentEntry struct {
	agent Agent
	err   error
}

// Router resolves agent keys to running Agents, caching each key's first
// successful resolution. config.json is read once at startup by the
// resolver this Router wraps, so the cache only needs invalidating when
// config is reloaded (see InvalidateAll) or a single agent's on-disk
// state changes in a way that should force a rebuild (InvalidateAgent).
type Router struct {
	resolve ResolverFunc

	mu     sync.Mutex
	agents map[string]*agentEntry
}

// NewRouter wraps a ResolverFunc with a caching lookup layer.
func NewRouter(resolve ResolverFunc) *Router {
	return &Router{
		resolve: resolve,
		agents:  make(map[string]*agentEntry),
	}
}

// Get returns the Agent for agentKey, resolving and caching it on first use.
// A failed resolution is not cached — the next Get retries.
func (r *Router) Get(agentKey string) (Agent, error) {
	r.mu.Lock()
	if entry, ok := r.agents[agentKey]; ok {
		r.mu.Unlock()
		return entry.agent, entry.err
	}
	r.mu.Unlock()

	ag, err := r.resolve(agentKey)
	if err != nil {
		return nil, fmt.Errorf("resolve agent %q: %w", agentKey, err)
	}

	r.mu.Lock()
	r.agents[agentKey] = &agentEntry{agent: ag}
	r.mu.Unlock()
	return ag, nil
}

// List returns the keys of every agent resolved (and still cached) so far.
func (r *Router) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.agents))
	for k, entry := range r.agents {
		if entry.err == nil {
			keys = append(keys, k)
		}
	}
	return keys
}

// InvalidateAgent removes an agent from the router cache, forcing re-resolution
// on the next Get. Used after a config reload touches a single agent's settings.
func (r *Router) InvalidateAgent(agentKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, agentKey)
	slog.Debug("invalidated agent cache", "agent", agentKey)
}

// InvalidateAll clears the entire agent cache, forcing every agent to re-resolve.
// Used after a full config reload.
func (r *Router) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = make(map[string]*agentEntry)
	slog.Debug("invalidated all agent caches")
}
