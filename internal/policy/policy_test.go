package policy

import "testing"

func TestFormatSystemRunAllowlistMissMessage_NamesWindowsWrapper(t *testing.T) {
	msg := FormatSystemRunAllowlistMissMessage(Decision{ShellWrapperBlocked: true, WindowsShellWrapperBlocked: true})
	if !contains(msg, "cmd.exe /c") {
		t.Fatalf("expected message to mention cmd.exe /c, got %q", msg)
	}
}

func TestDecide_SudoIsBlockedNotAShellWrapper(t *testing.T) {
	eng := NewEngine(SecurityFull, AskOff, nil)
	d := eng.Decide(Request{Argv: []string{"sudo", "echo", "x"}})
	if d.Allowed {
		t.Fatal("expected sudo to be denied")
	}
	if d.EventReason != "allowlist-miss" {
		t.Errorf("got eventReason %q, want allowlist-miss", d.EventReason)
	}
	if d.ShellWrapperBlocked {
		t.Error("expected shellWrapperBlocked=false for a privileged wrapper, not a shell wrapper")
	}
}

func TestDecide_BashDashCIsAShellWrapper(t *testing.T) {
	eng := NewEngine(SecurityFull, AskOff, nil)
	d := eng.Decide(Request{Argv: []string{"bash", "-c", "echo x"}})
	if d.Allowed {
		t.Fatal("expected bash -c to be denied")
	}
	if !d.ShellWrapperBlocked {
		t.Error("expected shellWrapperBlocked=true")
	}
	if d.WindowsShellWrapperBlocked {
		t.Error("expected windowsShellWrapperBlocked=false for a posix shell")
	}
	if !contains(d.ErrorMessage, "sh/bash/zsh -c") {
		t.Errorf("expected message to mention sh/bash/zsh -c, got %q", d.ErrorMessage)
	}
}

func TestDecide_FullSecurityAllowsOrdinaryCommand(t *testing.T) {
	eng := NewEngine(SecurityFull, AskOff, nil)
	d := eng.Decide(Request{Command: "ls -la"})
	if !d.Allowed {
		t.Fatalf("expected ordinary command to be allowed, got %+v", d)
	}
}

func TestDecide_AllowlistModeRequiresMatch(t *testing.T) {
	eng := NewEngine(SecurityAllowlist, AskOff, NewAllowlist([]string{"ls", "git"}))
	if d := eng.Decide(Request{Command: "ls -la"}); !d.Allowed {
		t.Errorf("expected ls to be allowed by allowlist match, got %+v", d)
	}
	if d := eng.Decide(Request{Command: "curl http://example.com"}); d.Allowed {
		t.Errorf("expected curl to be denied, not on allowlist, got %+v", d)
	}
}

func TestDecide_AllowAlwaysPersistsDerivedPattern(t *testing.T) {
	al := NewAllowlist(nil)
	eng := NewEngine(SecurityAllowlist, AskOff, al)
	d := eng.Decide(Request{Command: "curl http://example.com", ApprovalAnswer: ApprovalAllowAlways})
	if !d.Allowed {
		t.Fatalf("expected allow-always to permit the command, got %+v", d)
	}
	d2 := eng.Decide(Request{Command: "curl http://other.example.com"})
	if !d2.Allowed {
		t.Errorf("expected derived allowlist pattern to cover future curl calls, got %+v", d2)
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && indexOf(s, sub) >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
