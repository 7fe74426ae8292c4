package pairing

import (
	"path/filepath"
	"testing"
)

func TestRequestPairing_IssuesStableCode(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "pairing.json"))

	code1, err := s.RequestPairing("user1", "telegram", "chat1", "default")
	if err != nil {
		t.Fatalf("RequestPairing: %v", err)
	}
	if len(code1) != 6 {
		t.Errorf("expected a 6-char code, got %q", code1)
	}

	code2, err := s.RequestPairing("user1", "telegram", "chat1", "default")
	if err != nil {
		t.Fatalf("RequestPairing (again): %v", err)
	}
	if code1 != code2 {
		t.Errorf("expected repeat request to return the same code, got %q then %q", code1, code2)
	}
}

func TestApprove_GrantsIsPaired(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "pairing.json"))

	code, err := s.RequestPairing("user1", "telegram", "chat1", "default")
	if err != nil {
		t.Fatalf("RequestPairing: %v", err)
	}
	if s.IsPaired("user1", "telegram") {
		t.Fatal("should not be paired before approval")
	}

	if _, err := s.Approve(code); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !s.IsPaired("user1", "telegram") {
		t.Error("expected user to be paired after approval")
	}
}

func TestApprove_UnknownCode(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "pairing.json"))
	if _, err := s.Approve("NOPE00"); err == nil {
		t.Error("expected error approving unknown code")
	}
}

func TestRevoke_RemovesApproval(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "pairing.json"))
	code, _ := s.RequestPairing("user1", "telegram", "chat1", "default")
	if _, err := s.Approve(code); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if err := s.Revoke("user1", "telegram"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if s.IsPaired("user1", "telegram") {
		t.Error("expected user to be unpaired after Revoke")
	}
}

func TestPersistence_SurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairing.json")
	s1 := NewService(path)
	code, _ := s1.RequestPairing("user1", "telegram", "chat1", "default")
	if _, err := s1.Approve(code); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	s2 := NewService(path)
	if !s2.IsPaired("user1", "telegram") {
		t.Error("expected approval to survive reload from disk")
	}
}
