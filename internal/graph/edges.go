package graph

import (
	"database/sql"
	"fmt"
)

// AddEdge inserts a typed edge. Inserting a duplicate (source, target,
// type) triple is a no-op, never an error. Endpoints are not required
// to pre-exist; the orchestrator ensures both before linking.
func (s *Store) AddEdge(sourceID, targetID string, edgeType EdgeType, extra map[string]any) error {
	if !edgeType.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEdgeType, edgeType)
	}
	var exists int
	err := s.db.QueryRow(
		"SELECT 1 FROM edges WHERE source_id=? AND target_id=? AND edge_type=?",
		sourceID, targetID, string(edgeType)).Scan(&exists)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check edge: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO edges (source_id, target_id, edge_type, extra)
		VALUES (?, ?, ?, ?)`,
		sourceID, targetID, string(edgeType), marshalExtra(extra))
	if err != nil {
		return fmt.Errorf("add edge: %w", err)
	}
	return nil
}
