package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/zeroaltitude/openclaw/internal/config"
)

func openTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(t.TempDir(), config.MemoryConfig{MaxResults: 5})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestRememberAndGet(t *testing.T) {
	m := openTestManager(t)
	ctx := context.Background()

	id, err := m.Remember(ctx, "user1", "likes dark roast coffee")
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}

	entry, err := m.Get(ctx, "user1", id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Content != "likes dark roast coffee" {
		t.Errorf("got %q", entry.Content)
	}
}

func TestSearch_FindsTextMatch(t *testing.T) {
	m := openTestManager(t)
	ctx := context.Background()

	if _, err := m.Remember(ctx, "user1", "favorite programming language is Go"); err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if _, err := m.Remember(ctx, "user1", "lives in Lisbon"); err != nil {
		t.Fatalf("Remember: %v", err)
	}

	entries, err := m.Search(ctx, "user1", "programming language", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one match")
	}
	if entries[0].Content != "favorite programming language is Go" {
		t.Errorf("got top match %q", entries[0].Content)
	}
}

func TestSearch_ScopedByUser(t *testing.T) {
	m := openTestManager(t)
	ctx := context.Background()

	if _, err := m.Remember(ctx, "user1", "secret project codename falcon"); err != nil {
		t.Fatalf("Remember: %v", err)
	}

	entries, err := m.Search(ctx, "user2", "falcon", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no cross-user results, got %d", len(entries))
	}
}

func TestVectorRoundtrip(t *testing.T) {
	v := []float32{0.1, -0.2, 0.3, 1.5}
	got := decodeVector(encodeVector(v))
	if len(got) != len(v) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(v))
	}
	for i := range v {
		if got[i] != v[i] {
			t.Errorf("index %d: got %v, want %v", i, got[i], v[i])
		}
	}
}

func TestCosineSimilarity_IdenticalVectorsScoreOne(t *testing.T) {
	v := []float32{1, 2, 3}
	if s := cosineSimilarity(v, v); s < 0.999 {
		t.Errorf("expected ~1.0 for identical vectors, got %v", s)
	}
}
