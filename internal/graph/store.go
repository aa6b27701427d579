package graph

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a SQLite connection holding the reference graph. It owns
// the connection exclusively: open on construction, Close when done.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the graph database at dbPath, creating parent
// directories as needed.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir graph dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	slog.Info("graph.open", "path", dbPath)
	return s, nil
}

// OpenMemory opens an in-memory graph database (for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	s := &Store{db: db, dbPath: ":memory:"}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the on-disk location of the store.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		node_type TEXT NOT NULL,
		name TEXT NOT NULL,
		object_type TEXT,
		object_name TEXT,
		synonym TEXT,
		extra TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(node_type);
	CREATE INDEX IF NOT EXISTS idx_nodes_object ON nodes(object_type, object_name);

	CREATE TABLE IF NOT EXISTS edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		edge_type TEXT NOT NULL,
		extra TEXT,
		FOREIGN KEY (source_id) REFERENCES nodes(id),
		FOREIGN KEY (target_id) REFERENCES nodes(id)
	);
	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
	CREATE INDEX IF NOT EXISTS idx_edges_type ON edges(edge_type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Clear deletes all edges, then all nodes. The graph is expected to be
// rebuilt from scratch after a Clear rather than patched incrementally.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM edges"); err != nil {
		return fmt.Errorf("clear edges: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM nodes"); err != nil {
		return fmt.Errorf("clear nodes: %w", err)
	}
	slog.Info("graph.cleared")
	return nil
}

// marshalExtra serializes an extra payload to JSON, or NULL when absent.
func marshalExtra(extra map[string]any) any {
	if len(extra) == 0 {
		return nil
	}
	b, err := json.Marshal(extra)
	if err != nil {
		return nil
	}
	return string(b)
}

func unmarshalExtra(data sql.NullString) map[string]any {
	if !data.Valid || data.String == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(data.String), &m); err != nil {
		return nil
	}
	return m
}
