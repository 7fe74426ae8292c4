// Package memory implements the agent's durable long-term memory: a local
// SQLite database with an FTS5 full-text index and an optional embedding
// column, searched with a hybrid text+vector score.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/zeroaltitude/openclaw/internal/config"
)

// Entry is one remembered fact.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	Score     float64   `json:"score,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EmbeddingFunc turns text into a vector. Set via SetEmbeddingProvider;
// nil means memory falls back to FTS-only search.
type EmbeddingFunc func(ctx context.Context, text string) ([]float32, error)

// Manager owns the SQLite-backed memory store for one workspace.
type Manager struct {
	db        *sql.DB
	cfg       config.MemoryConfig
	embed     EmbeddingFunc
	embedName string
}

// Open creates (or reopens) the memory database under workspace/.openclaw/memory.db.
func Open(workspace string, cfg config.MemoryConfig) (*Manager, error) {
	path := filepath.Join(workspace, ".openclaw", "memory.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("memory: open %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("memory: migrate: %w", err)
	}
	return &Manager{db: db, cfg: cfg}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS memory_entries (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	content TEXT NOT NULL,
	embedding BLOB,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memory_entries_user ON memory_entries(user_id);
CREATE VIRTUAL TABLE IF NOT EXISTS memory_fts USING fts5(
	content,
	content='memory_entries',
	content_rowid='rowid'
);
CREATE TRIGGER IF NOT EXISTS memory_entries_ai AFTER INSERT ON memory_entries BEGIN
	INSERT INTO memory_fts(rowid, content) VALUES (new.rowid, new.content);
END;
CREATE TRIGGER IF NOT EXISTS memory_entries_ad AFTER DELETE ON memory_entries BEGIN
	INSERT INTO memory_fts(memory_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
END;
`)
	return err
}

// SetEmbeddingProvider wires a vector embedding function in, enabling hybrid
// text+vector scoring. name is recorded only for logging.
func (m *Manager) SetEmbeddingProvider(name string, fn EmbeddingFunc) {
	m.embedName = name
	m.embed = fn
}

// Close releases the underlying database handle.
func (m *Manager) Close() error {
	return m.db.Close()
}

// Remember stores a new memory entry for userID and returns its ID.
func (m *Manager) Remember(ctx context.Context, userID, content string) (string, error) {
	id := uuid.NewString()
	var embedding []byte
	if m.embed != nil {
		if vec, err := m.embed(ctx, content); err == nil {
			embedding = encodeVector(vec)
		}
	}
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO memory_entries (id, user_id, content, embedding, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, content, embedding, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("memory: remember: %w", err)
	}
	return id, nil
}

// Get returns a single entry by ID, scoped to userID.
func (m *Manager) Get(ctx context.Context, userID, id string) (*Entry, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT id, user_id, content, created_at FROM memory_entries WHERE id = ? AND user_id = ?`, id, userID)
	var e Entry
	var createdAt string
	if err := row.Scan(&e.ID, &e.UserID, &e.Content, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("memory: no entry %s", id)
		}
		return nil, fmt.Errorf("memory: get %s: %w", id, err)
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

// Search returns the top matches for query among userID's entries, ranked by
// a hybrid of FTS5 rank and (when an embedding provider is wired) cosine
// similarity.
func (m *Manager) Search(ctx context.Context, userID, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = m.cfg.MaxResults
	}
	if limit <= 0 {
		limit = 6
	}

	rows, err := m.db.QueryContext(ctx, `
SELECT e.id, e.user_id, e.content, e.embedding, e.created_at, bm25(memory_fts) AS rank
FROM memory_fts
JOIN memory_entries e ON e.rowid = memory_fts.rowid
WHERE memory_fts MATCH ? AND e.user_id = ?
ORDER BY rank LIMIT ?`, ftsQuery(query), userID, limit*4)
	if err != nil {
		return nil, fmt.Errorf("memory: search: %w", err)
	}
	defer rows.Close()

	textWeight := m.cfg.TextWeight
	if textWeight == 0 {
		textWeight = 0.3
	}
	vectorWeight := m.cfg.VectorWeight
	if vectorWeight == 0 {
		vectorWeight = 0.7
	}
	minScore := m.cfg.MinScore
	if minScore == 0 {
		minScore = 0.35
	}

	var queryVec []float32
	if m.embed != nil {
		queryVec, _ = m.embed(ctx, query)
	}

	var out []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		var embedding []byte
		var rank float64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Content, &embedding, &createdAt, &rank); err != nil {
			return nil, fmt.Errorf("memory: scan: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		// bm25() returns lower-is-better; fold into a 0..1 "text score".
		textScore := 1 / (1 + rank*-1)
		if rank >= 0 {
			textScore = 1 / (1 + rank)
		}

		score := textScore
		if queryVec != nil && embedding != nil {
			vecScore := cosineSimilarity(queryVec, decodeVector(embedding))
			score = textWeight*textScore + vectorWeight*vecScore
		}
		e.Score = score
		if score < minScore {
			continue
		}
		out = append(out, e)
	}

	// Re-rank by hybrid score (FTS ordering alone doesn't reflect vector boost).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Score > out[j-1].Score; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
