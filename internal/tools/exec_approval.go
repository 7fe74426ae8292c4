package tools

import (
	"fmt"
	"sync"
	"time"

	"github.com/zeroaltitude/openclaw/internal/policy"
)

// ExecSecurity is the baseline policy applied to every shell command before
// any per-command "ask" prompt is considered.
type ExecSecurity = policy.Security

const (
	ExecSecurityDeny      = policy.SecurityDeny      // no commands run at all
	ExecSecurityAllowlist = policy.SecurityAllowlist // only allowlisted commands run
	ExecSecurityFull      = policy.SecurityFull      // any command not otherwise blocked runs
)

// ExecAskMode controls when a human is prompted to approve a command that
// passed the security check.
type ExecAskMode = policy.AskMode

const (
	ExecAskOff    = policy.AskOff    // never ask
	ExecAskOnMiss = policy.AskOnMiss // ask only for commands not on the allowlist
	ExecAskAlways = policy.AskAlways // ask for every command
)

// ApprovalDecision is the human's answer to a RequestApproval call.
type ApprovalDecision int

const (
	ApprovalPending ApprovalDecision = iota
	ApprovalAllow
	ApprovalDeny
)

// ExecApprovalConfig configures an ExecApprovalManager.
type ExecApprovalConfig struct {
	Security  ExecSecurity
	Ask       ExecAskMode
	Allowlist []string // glob patterns matched against a command segment's head binary
}

// DefaultExecApprovalConfig matches ExecApprovalCfg's documented defaults:
// security=full, ask=off (run anything, never prompt) until the operator
// opts into tighter settings via config.json.
func DefaultExecApprovalConfig() ExecApprovalConfig {
	return ExecApprovalConfig{
		Security: ExecSecurityFull,
		Ask:      ExecAskOff,
	}
}

// pendingApproval tracks one in-flight human approval request.
type pendingApproval struct {
	command string
	agentID string
	resCh   chan ApprovalDecision
}

// ExecApprovalManager gates shell command execution behind the policy
// engine (wrapper unwrapping, shell-wrapper detection, allowlist analysis)
// and, optionally, an interactive approval step. It does not own a delivery
// channel to the human — RequestApproval blocks until Decide is called
// (typically from a pairing/gateway RPC handler) or the timeout elapses.
type ExecApprovalManager struct {
	engine *policy.Engine

	mu      sync.Mutex
	pending map[string]*pendingApproval // requestID -> pending
	seq     int
}

// NewExecApprovalManager creates a manager from cfg.
func NewExecApprovalManager(cfg ExecApprovalConfig) *ExecApprovalManager {
	return &ExecApprovalManager{
		engine:  policy.NewEngine(cfg.Security, cfg.Ask, policy.NewAllowlist(cfg.Allowlist)),
		pending: make(map[string]*pendingApproval),
	}
}

// Analyze runs the full policy engine (wrapper unwrapping, shell-wrapper
// detection, segmentation, allowlist matching) against an inline command.
func (m *ExecApprovalManager) Analyze(command, agentID string) policy.Decision {
	return m.engine.Decide(policy.Request{Command: command, AgentID: agentID})
}

// CheckCommand runs the security policy against command and returns one of
// "deny" (refuse outright), "ask" (run RequestApproval first), or "" (run
// without prompting). It is a narrower view of Decide for callers that only
// need the coarse verdict.
func (m *ExecApprovalManager) CheckCommand(command string) string {
	d := m.engine.Decide(policy.Request{Command: command})
	switch {
	case d.Allowed:
		return ""
	case d.RequiresAsk:
		return "ask"
	default:
		return "deny"
	}
}

// RequestApproval blocks until a human decides on command, or timeout
// elapses (treated as deny). Callers outside this package resolve the
// request by looking it up via Pending() and calling Decide().
func (m *ExecApprovalManager) RequestApproval(command, agentID string, timeout time.Duration) (ApprovalDecision, error) {
	m.mu.Lock()
	m.seq++
	id := fmt.Sprintf("exec-approval-%d", m.seq)
	p := &pendingApproval{command: command, agentID: agentID, resCh: make(chan ApprovalDecision, 1)}
	m.pending[id] = p
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
	}()

	select {
	case d := <-p.resCh:
		return d, nil
	case <-time.After(timeout):
		return ApprovalDeny, fmt.Errorf("approval request timed out after %s", timeout)
	}
}

// PendingApprovals lists outstanding approval requests (id, command, agentID),
// for a gateway RPC handler to surface to the operator.
func (m *ExecApprovalManager) PendingApprovals() map[string]struct{ Command, AgentID string } {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{ Command, AgentID string }, len(m.pending))
	for id, p := range m.pending {
		out[id] = struct{ Command, AgentID string }{Command: p.command, AgentID: p.agentID}
	}
	return out
}

// Decide resolves a pending approval request by ID. Returns false if no such
// request is outstanding (e.g. it already timed out).
func (m *ExecApprovalManager) Decide(id string, allow bool) bool {
	m.mu.Lock()
	p, ok := m.pending[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	decision := ApprovalDeny
	if allow {
		decision = ApprovalAllow
	}
	select {
	case p.resCh <- decision:
		return true
	default:
		return false
	}
}
