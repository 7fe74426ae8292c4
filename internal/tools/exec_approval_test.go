package tools

import (
	"testing"
	"time"
)

func TestCheckCommand_DenySecurityBlocksEverything(t *testing.T) {
	m := NewExecApprovalManager(ExecApprovalConfig{Security: ExecSecurityDeny})
	if got := m.CheckCommand("ls -la"); got != "deny" {
		t.Errorf("got %q, want deny", got)
	}
}

func TestCheckCommand_AllowlistSecurity(t *testing.T) {
	m := NewExecApprovalManager(ExecApprovalConfig{
		Security:  ExecSecurityAllowlist,
		Allowlist: []string{"ls", "git"},
	})
	if got := m.CheckCommand("ls -la"); got != "" {
		t.Errorf("allowlisted command: got %q, want no gate", got)
	}
	if got := m.CheckCommand("rm -rf /"); got != "deny" {
		t.Errorf("non-allowlisted command: got %q, want deny", got)
	}
}

func TestCheckCommand_AskOnMiss(t *testing.T) {
	m := NewExecApprovalManager(ExecApprovalConfig{
		Security:  ExecSecurityFull,
		Ask:       ExecAskOnMiss,
		Allowlist: []string{"ls"},
	})
	if got := m.CheckCommand("ls -la"); got != "" {
		t.Errorf("allowlisted: got %q, want no gate", got)
	}
	if got := m.CheckCommand("curl example.com"); got != "ask" {
		t.Errorf("non-allowlisted: got %q, want ask", got)
	}
}

func TestRequestApproval_AllowResolves(t *testing.T) {
	m := NewExecApprovalManager(ExecApprovalConfig{Security: ExecSecurityFull, Ask: ExecAskAlways})

	resultCh := make(chan ApprovalDecision, 1)
	go func() {
		d, err := m.RequestApproval("curl example.com", "agent1", 2*time.Second)
		if err != nil {
			t.Errorf("RequestApproval: %v", err)
		}
		resultCh <- d
	}()

	var id string
	for id == "" {
		pending := m.PendingApprovals()
		for k := range pending {
			id = k
		}
	}
	if !m.Decide(id, true) {
		t.Fatal("Decide returned false for a known pending request")
	}

	select {
	case d := <-resultCh:
		if d != ApprovalAllow {
			t.Errorf("got %v, want ApprovalAllow", d)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for RequestApproval to resolve")
	}
}

func TestRequestApproval_TimesOutAsDeny(t *testing.T) {
	m := NewExecApprovalManager(ExecApprovalConfig{Security: ExecSecurityFull, Ask: ExecAskAlways})
	d, err := m.RequestApproval("curl example.com", "agent1", 20*time.Millisecond)
	if err == nil {
		t.Error("expected timeout error")
	}
	if d != ApprovalDeny {
		t.Errorf("got %v, want ApprovalDeny", d)
	}
}

func TestDecide_UnknownIDReturnsFalse(t *testing.T) {
	m := NewExecApprovalManager(DefaultExecApprovalConfig())
	if m.Decide("no-such-id", true) {
		t.Error("expected Decide to return false for unknown request")
	}
}
