package graph

import (
	"database/sql"
	"fmt"
)

// DefaultQueryLimit caps dependency/reference query results when the
// caller passes no explicit limit.
const DefaultQueryLimit = 100

// GetDependencies answers "who points at this object": distinct
// (owning node, edge type) pairs for edges targeting a node whose
// identity encodes objectName, ordered by edge type then node name.
func (s *Store) GetDependencies(objectName string, limit int) ([]Relation, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	rows, err := s.db.Query(`
		SELECT DISTINCT n.id, n.name, n.object_type, n.object_name, e.edge_type
		FROM edges e
		JOIN nodes n ON n.id = e.source_id
		WHERE e.target_id LIKE ? OR e.target_id LIKE ?
		ORDER BY e.edge_type, n.name
		LIMIT ?`,
		"%:"+objectName, "metadata:%:"+objectName, limit)
	if err != nil {
		return nil, fmt.Errorf("get dependencies: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// GetReferences is the mirror query: what does this object use. Edges
// originate either from one of the object's method/form nodes (id
// contains ":name:") or from its metadata node itself.
func (s *Store) GetReferences(objectName string, limit int) ([]Relation, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	rows, err := s.db.Query(`
		SELECT DISTINCT n.id, n.name, n.object_type, n.object_name, e.edge_type
		FROM edges e
		JOIN nodes n ON n.id = e.target_id
		WHERE e.source_id LIKE ? OR e.source_id LIKE ?
		ORDER BY e.edge_type, n.name
		LIMIT ?`,
		"%:"+objectName+":%", "metadata:%:"+objectName, limit)
	if err != nil {
		return nil, fmt.Errorf("get references: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

func scanRelations(rows *sql.Rows) ([]Relation, error) {
	var result []Relation
	for rows.Next() {
		var id, name, edgeType string
		var objectType, objectName sql.NullString
		if err := rows.Scan(&id, &name, &objectType, &objectName, &edgeType); err != nil {
			return nil, err
		}
		obj := objectName.String
		if obj == "" {
			obj = name
		}
		result = append(result, Relation{
			Object:   objectType.String + "." + obj,
			NodeID:   id,
			EdgeType: edgeType,
		})
	}
	return result, rows.Err()
}

// GetStats returns node/edge totals and per-kind breakdowns.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{
		NodesByType: map[string]int{},
		EdgesByType: map[string]int{},
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&stats.NodesCount); err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&stats.EdgesCount); err != nil {
		return nil, fmt.Errorf("count edges: %w", err)
	}
	if err := s.groupCount("SELECT node_type, COUNT(*) FROM nodes GROUP BY node_type", stats.NodesByType); err != nil {
		return nil, err
	}
	if err := s.groupCount("SELECT edge_type, COUNT(*) FROM edges GROUP BY edge_type", stats.EdgesByType); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) groupCount(query string, dst map[string]int) error {
	rows, err := s.db.Query(query)
	if err != nil {
		return fmt.Errorf("group count: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dst[key] = count
	}
	return rows.Err()
}
