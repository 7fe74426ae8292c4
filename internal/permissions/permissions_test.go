package permissions

import "testing"

func TestIsOwner_EmptySetAllowsEveryone(t *testing.T) {
	pe := NewPolicyEngine(nil)
	if !pe.IsOwner("anyone") {
		t.Error("expected empty owner set to allow everyone")
	}
}

func TestIsOwner_RestrictsToConfiguredSet(t *testing.T) {
	pe := NewPolicyEngine([]string{"alice", "bob"})
	if !pe.IsOwner("alice") {
		t.Error("expected alice to be owner")
	}
	if pe.IsOwner("carol") {
		t.Error("expected carol not to be owner")
	}
}

func TestRole(t *testing.T) {
	pe := NewPolicyEngine([]string{"alice"})
	if pe.Role("alice") != RoleOwner {
		t.Errorf("expected alice to be %s", RoleOwner)
	}
	if pe.Role("bob") != RoleMember {
		t.Errorf("expected bob to be %s", RoleMember)
	}
}

func TestSetOwners_ReplacesSet(t *testing.T) {
	pe := NewPolicyEngine([]string{"alice"})
	pe.SetOwners([]string{"bob"})
	if pe.IsOwner("alice") {
		t.Error("expected alice to lose owner status after SetOwners")
	}
	if !pe.IsOwner("bob") {
		t.Error("expected bob to gain owner status after SetOwners")
	}
}
