package supervisor

import (
	"context"
	"os/exec"
	"testing"
	"time"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available on this host")
	}
}

func TestRun_OverallTimeout(t *testing.T) {
	requireSh(t)
	s := New()
	exit, err := s.Run(context.Background(), RunOptions{
		Argv:           []string{"sh", "-c", "sleep 1"},
		OverallTimeout: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exit.Reason != ReasonOverallTimeout {
		t.Errorf("reason = %q, want %q", exit.Reason, ReasonOverallTimeout)
	}
	if !exit.TimedOut {
		t.Error("TimedOut = false, want true")
	}
}

func TestRun_NoOutputTimeout(t *testing.T) {
	requireSh(t)
	s := New()
	exit, err := s.Run(context.Background(), RunOptions{
		Argv:            []string{"sh", "-c", "sleep 1"},
		NoOutputTimeout: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exit.Reason != ReasonNoOutputTimeout {
		t.Errorf("reason = %q, want %q", exit.Reason, ReasonNoOutputTimeout)
	}
	if !exit.NoOutputTimedOut {
		t.Error("NoOutputTimedOut = false, want true")
	}
}

func TestRun_NoOutputTimeoutResetsOnOutput(t *testing.T) {
	requireSh(t)
	s := New()
	exit, err := s.Run(context.Background(), RunOptions{
		Argv:            []string{"sh", "-c", "for i in 1 2 3; do echo tick; sleep 0.02; done"},
		NoOutputTimeout: 200 * time.Millisecond,
		CaptureOutput:   true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exit.Reason != ReasonExit {
		t.Errorf("reason = %q, want %q (output should keep resetting the silence timer)", exit.Reason, ReasonExit)
	}
	if exit.Stdout == "" {
		t.Error("expected captured stdout")
	}
}

func TestRun_NodeOverallTimeout(t *testing.T) {
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node not available on this host")
	}
	s := New()
	exit, err := s.Run(context.Background(), RunOptions{
		Argv:           []string{"node", "-e", "setTimeout(() => {}, 40)"},
		OverallTimeout: 1 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exit.Reason != ReasonOverallTimeout || !exit.TimedOut {
		t.Errorf("reason=%q timedOut=%v, want overall-timeout/true", exit.Reason, exit.TimedOut)
	}
}

func TestRun_CapturesExitCode(t *testing.T) {
	requireSh(t)
	s := New()
	exit, err := s.Run(context.Background(), RunOptions{Argv: []string{"sh", "-c", "exit 7"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exit.Reason != ReasonExit {
		t.Errorf("reason = %q, want %q", exit.Reason, ReasonExit)
	}
	if exit.ExitCode != 7 {
		t.Errorf("exitCode = %d, want 7", exit.ExitCode)
	}
}

func TestRun_ManualCancelViaContext(t *testing.T) {
	requireSh(t)
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(5*time.Millisecond, cancel)
	exit, err := s.Run(ctx, RunOptions{Argv: []string{"sh", "-c", "sleep 1"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exit.Reason != ReasonManualCancel {
		t.Errorf("reason = %q, want %q", exit.Reason, ReasonManualCancel)
	}
}

func TestRun_ScopeBusyWithoutReplace(t *testing.T) {
	requireSh(t)
	s := New()
	started := make(chan struct{})
	go func() {
		_, _ = s.Run(context.Background(), RunOptions{
			Argv:     []string{"sh", "-c", "sleep 0.2"},
			ScopeKey: "scope-a",
		})
		close(started)
	}()
	time.Sleep(20 * time.Millisecond)

	_, err := s.Run(context.Background(), RunOptions{
		Argv:                 []string{"sh", "-c", "echo hi"},
		ScopeKey:             "scope-a",
		ReplaceExistingScope: false,
	})
	if err != ErrScopeBusy {
		t.Errorf("err = %v, want ErrScopeBusy", err)
	}
	<-started
}

func TestRun_ReplaceExistingScopeCancelsPriorRun(t *testing.T) {
	requireSh(t)
	s := New()
	firstDone := make(chan *RunExit, 1)
	go func() {
		exit, _ := s.Run(context.Background(), RunOptions{
			Argv:     []string{"sh", "-c", "sleep 2"},
			ScopeKey: "scope-b",
		})
		firstDone <- exit
	}()
	time.Sleep(20 * time.Millisecond)

	second, err := s.Run(context.Background(), RunOptions{
		Argv:                 []string{"sh", "-c", "echo hi"},
		ScopeKey:             "scope-b",
		ReplaceExistingScope: true,
	})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Reason != ReasonExit {
		t.Errorf("second run reason = %q, want %q", second.Reason, ReasonExit)
	}

	first := <-firstDone
	if first.Reason != ReasonManualCancel {
		t.Errorf("first run reason = %q, want %q (replaced)", first.Reason, ReasonManualCancel)
	}
}
