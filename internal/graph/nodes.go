package graph

import (
	"database/sql"
	"fmt"
)

// AddNode inserts or replaces a node by id. An unknown node type is a
// caller bug and fails immediately.
func (s *Store) AddNode(n *Node) error {
	if !n.Type.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidNodeType, n.Type)
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO nodes (id, node_type, name, object_type, object_name, synonym, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Type), n.Name, n.ObjectType, n.ObjectName, n.Synonym, marshalExtra(n.Extra))
	if err != nil {
		return fmt.Errorf("add node: %w", err)
	}
	return nil
}

// EnsureMetadataNode upserts the metadata node for (objectType,
// objectName) and returns its id. Idempotent across a whole indexing run.
func (s *Store) EnsureMetadataNode(objectType, objectName, synonym string) (string, error) {
	id := MetadataNodeID(objectType, objectName)
	err := s.AddNode(&Node{
		ID:         id,
		Type:       NodeMetadata,
		Name:       objectName,
		ObjectType: objectType,
		ObjectName: objectName,
		Synonym:    synonym,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// FindNode returns the node with the given id, or nil when absent.
func (s *Store) FindNode(id string) (*Node, error) {
	row := s.db.QueryRow(`SELECT id, node_type, name, object_type, object_name, synonym, extra
		FROM nodes WHERE id=?`, id)
	return scanNode(row)
}

// FindNodesByObjectName returns all nodes whose object_name matches,
// ordered by id for stable output.
func (s *Store) FindNodesByObjectName(objectName string) ([]*Node, error) {
	rows, err := s.db.Query(`SELECT id, node_type, name, object_type, object_name, synonym, extra
		FROM nodes WHERE object_name=? ORDER BY id`, objectName)
	if err != nil {
		return nil, fmt.Errorf("find nodes by object name: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*Node, error) {
	var n Node
	var nodeType string
	var objectType, objectName, synonym, extra sql.NullString
	err := row.Scan(&n.ID, &nodeType, &n.Name, &objectType, &objectName, &synonym, &extra)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	n.Type = NodeType(nodeType)
	n.ObjectType = objectType.String
	n.ObjectName = objectName.String
	n.Synonym = synonym.String
	n.Extra = unmarshalExtra(extra)
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]*Node, error) {
	var result []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}
