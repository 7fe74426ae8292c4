package agent

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeroaltitude/openclaw/internal/bootstrap"
	"github.com/zeroaltitude/openclaw/internal/bus"
	"github.com/zeroaltitude/openclaw/internal/config"
	"github.com/zeroaltitude/openclaw/internal/hooks"
	"github.com/zeroaltitude/openclaw/internal/providers"
	"github.com/zeroaltitude/openclaw/internal/skills"
	"github.com/zeroaltitude/openclaw/internal/store"
	"github.com/zeroaltitude/openclaw/internal/tools"
	"github.com/zeroaltitude/openclaw/internal/tracing"
)

// ResolverDeps holds the shared dependencies every config-defined agent is
// built from. One set is created at startup and closed over by the
// ResolverFunc NewConfigResolver returns; per-agent specifics all come
// from cfg.Agents.
type ResolverDeps struct {
	Config      *config.Config
	ProviderReg *providers.Registry
	Bus         bus.EventPublisher
	Sessions    store.SessionStore
	Tools       *tools.Registry
	ToolPolicy  *tools.PolicyEngine
	Skills      *skills.Loader
	HasMemory   bool
	OnEvent     func(AgentEvent)
	TraceCollector *tracing.Collector
	HookEngine     *hooks.Engine

	InjectionAction string // "log", "warn", "block", "off"
	MaxMessageChars int
}

// NewConfigResolver creates a ResolverFunc that builds Loops from
// config.json's agents.list / agents.defaults. Every agent this process
// will ever serve is named there — there is no external agent store to
// query, so resolution just merges one AgentSpec over AgentDefaults and
// hands the result to NewLoop.
func NewConfigResolver(deps ResolverDeps) ResolverFunc {
	return func(agentKey string) (Agent, error) {
		cfg := deps.Config
		spec, ok := cfg.Agents.List[agentKey]
		if !ok {
			return nil, fmt.Errorf("agent not found: %s", agentKey)
		}
		resolved := cfg.ResolveAgent(agentKey)

		provider, err := deps.ProviderReg.Get(resolved.Provider)
		if err != nil {
			names := deps.ProviderReg.List()
			if len(names) == 0 {
				return nil, fmt.Errorf("no providers configured for agent %s", agentKey)
			}
			provider, _ = deps.ProviderReg.Get(names[0])
			slog.Warn("agent provider not found, using fallback",
				"agent", agentKey, "wanted", resolved.Provider, "using", names[0])
		}
		if provider == nil {
			return nil, fmt.Errorf("no provider available for agent %s", agentKey)
		}

		agentType := resolved.AgentType
		if agentType == "" {
			agentType = "open"
		}

		workspace := config.ExpandHome(resolved.Workspace)
		if workspace != "" {
			if !filepath.IsAbs(workspace) {
				workspace, _ = filepath.Abs(workspace)
			}
			if err := os.MkdirAll(workspace, 0755); err != nil {
				slog.Warn("failed to create agent workspace directory", "workspace", workspace, "agent", agentKey, "error", err)
			}
		}

		if created, err := bootstrap.EnsureWorkspaceFiles(workspace); err != nil {
			slog.Warn("failed to seed workspace bootstrap files", "agent", agentKey, "workspace", workspace, "error", err)
		} else if len(created) > 0 {
			slog.Info("seeded workspace bootstrap files", "agent", agentKey, "files", created)
		}

		truncCfg := bootstrap.TruncateConfig{
			MaxCharsPerFile: resolved.BootstrapMaxChars,
			TotalMaxChars:   resolved.BootstrapTotalMaxChars,
		}
		loaded := bootstrap.BuildContextFiles(bootstrap.LoadWorkspaceFiles(workspace), truncCfg)

		// DELEGATION.md: every other configured agent is a valid delegate
		// target. A single operator's fleet has no cross-tenant permission
		// graph to consult — config.json is the whole authority.
		targets := delegateTargets(cfg.Agents.List, agentKey)
		if len(targets) > 0 {
			content := buildDelegateAgentsMD(targets)
			if len(targets) > 15 {
				content = buildDelegateSearchInstruction(len(targets))
			}
			loaded = append(loaded, bootstrap.ContextFile{Path: bootstrap.DelegationFile, Content: content})
		} else {
			loaded = append(loaded, bootstrap.ContextFile{
				Path:    "AVAILABILITY.md",
				Content: "You have NO delegation targets. Do not use delegate or delegate_search tools.",
			})
		}

		contextWindow := resolved.ContextWindow
		if contextWindow <= 0 {
			contextWindow = 200000
		}
		maxIter := resolved.MaxToolIterations
		if maxIter <= 0 {
			maxIter = 20
		}

		sandboxCfg := resolved.Sandbox
		var sandboxEnabled bool
		var sandboxContainerDir, sandboxWorkspaceAccess string
		if sandboxCfg != nil {
			sb := sandboxCfg.ToSandboxConfig()
			sandboxEnabled = sandboxCfg.Mode != "" && sandboxCfg.Mode != "off"
			sandboxContainerDir = sb.ContainerWorkdir()
			sandboxWorkspaceAccess = string(sb.WorkspaceAccess)
		}

		hasMemory := deps.HasMemory
		memCfg := resolved.Memory
		if memCfg != nil && memCfg.Enabled != nil && !*memCfg.Enabled {
			hasMemory = false
		}

		var skillAllowList []string
		if spec.Skills != nil {
			skillAllowList = spec.Skills
		}

		loop := NewLoop(LoopConfig{
			ID:                     agentKey,
			AgentType:              agentType,
			Provider:               provider,
			Model:                  resolved.Model,
			ContextWindow:          contextWindow,
			MaxIterations:          maxIter,
			Workspace:              workspace,
			Bus:                    deps.Bus,
			Sessions:               deps.Sessions,
			Tools:                  deps.Tools,
			ToolPolicy:             deps.ToolPolicy,
			AgentToolPolicy:        spec.Tools,
			SkillsLoader:           deps.Skills,
			SkillAllowList:         skillAllowList,
			HasMemory:              hasMemory,
			ContextFiles:           loaded,
			OnEvent:                deps.OnEvent,
			TraceCollector:         deps.TraceCollector,
			InjectionAction:        deps.InjectionAction,
			MaxMessageChars:        deps.MaxMessageChars,
			CompactionCfg:          resolved.Compaction,
			ContextPruningCfg:      resolved.ContextPruning,
			SandboxEnabled:         sandboxEnabled,
			SandboxContainerDir:    sandboxContainerDir,
			SandboxWorkspaceAccess: sandboxWorkspaceAccess,
			HookEngine:             deps.HookEngine,
		})

		slog.Info("resolved agent from config", "agent", agentKey, "model", resolved.Model, "provider", resolved.Provider)
		return loop, nil
	}
}

// delegateTarget describes one agent another agent can hand work to.
type delegateTarget struct {
	Key         string
	DisplayName string
}

func delegateTargets(agents map[string]config.AgentSpec, self string) []delegateTarget {
	var targets []delegateTarget
	for key, spec := range agents {
		if key == self {
			continue
		}
		targets = append(targets, delegateTarget{Key: key, DisplayName: spec.DisplayName})
	}
	return targets
}

// buildDelegateAgentsMD generates DELEGATION.md content listing available delegation targets.
func buildDelegateAgentsMD(targets []delegateTarget) string {
	var sb strings.Builder
	sb.WriteString("# Agent Delegation\n\n")
	sb.WriteString("You have the `delegate` tool available. Use it to delegate tasks to other specialized agents.\n")
	sb.WriteString("The agent list below is complete and authoritative — answer questions about available agents directly from it.\n")
	sb.WriteString("Only use `delegate` when you need to actually assign work, not to check who is available.\n\n")
	sb.WriteString("## Available Agents\n")

	for _, t := range targets {
		sb.WriteString(fmt.Sprintf("\n### %s", t.Key))
		if t.DisplayName != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", t.DisplayName))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("→ `delegate(agent=\"%s\", task=\"describe the task\")`\n", t.Key))
	}

	sb.WriteString("\n## When to Delegate\n\n")
	sb.WriteString("- The task clearly falls under another agent's expertise\n")
	sb.WriteString("- You lack the tools or knowledge to handle it well\n")
	sb.WriteString("- The user explicitly asks to involve another agent\n")

	return sb.String()
}

// buildDelegateSearchInstruction generates DELEGATION.md content that instructs the agent
// to use delegate_search tool instead of listing all targets (used when >15 targets).
func buildDelegateSearchInstruction(targetCount int) string {
	return fmt.Sprintf(`# Agent Delegation

You have the `+"`delegate`"+` and `+"`delegate_search`"+` tools available.
Do NOT look for delegation info on disk — it is provided here.

You have access to %d specialized agents. To find the right one:

1. `+"`delegate_search(query=\"your keywords\")`"+` — search agents by expertise
2. `+"`delegate(agent=\"agent-key\", task=\"describe the task\")`"+` — delegate the task

Example:
- User asks about billing → `+"`delegate_search(query=\"billing payment\")`"+` → `+"`delegate(agent=\"billing-agent\", task=\"...\")`"+`

Do NOT guess agent keys. Always search first.
`, targetCount)
}
