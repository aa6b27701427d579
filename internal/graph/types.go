package graph

import (
	"errors"
	"fmt"
)

// NodeType classifies a graph node. The set is closed: the store rejects
// any other value at insert time.
type NodeType string

const (
	NodeMetadata NodeType = "Metadata"
	NodeMethod   NodeType = "Method"
	NodeForm     NodeType = "Form"
)

// EdgeType classifies a directed edge between two nodes.
type EdgeType string

const (
	EdgeReferences    EdgeType = "REFERENCES"
	EdgeHasMethod     EdgeType = "HAS_METHOD"
	EdgeHasForm       EdgeType = "HAS_FORM"
	EdgeAttributeType EdgeType = "ATTRIBUTE_TYPE"
	EdgeUsesInCode    EdgeType = "USES_IN_CODE"
)

// ErrInvalidNodeType and ErrInvalidEdgeType mark programmer errors: an
// unknown kind reaching the store is a bug in the caller, not a runtime
// condition, and fails fast.
var (
	ErrInvalidNodeType = errors.New("unknown node type")
	ErrInvalidEdgeType = errors.New("unknown edge type")
)

func (t NodeType) valid() bool {
	switch t {
	case NodeMetadata, NodeMethod, NodeForm:
		return true
	}
	return false
}

func (t EdgeType) valid() bool {
	switch t {
	case EdgeReferences, EdgeHasMethod, EdgeHasForm, EdgeAttributeType, EdgeUsesInCode:
		return true
	}
	return false
}

// Node is a graph node as persisted. ID is the primary key and follows
// the composite id scheme (see MetadataNodeID and friends).
type Node struct {
	ID         string
	Type       NodeType
	Name       string
	ObjectType string
	ObjectName string
	Synonym    string
	Extra      map[string]any
}

// Edge is a directed typed edge. The triple (SourceID, TargetID, Type)
// is unique; duplicate inserts are no-ops.
type Edge struct {
	ID       int64
	SourceID string
	TargetID string
	Type     EdgeType
	Extra    map[string]any
}

// Relation is one row of a dependency or reference query, shaped for
// serialization to the tool layer.
type Relation struct {
	Object   string `json:"object"`
	NodeID   string `json:"node_id"`
	EdgeType string `json:"edge_type"`
}

// Stats summarizes the graph contents.
type Stats struct {
	NodesCount  int            `json:"nodes_count"`
	EdgesCount  int            `json:"edges_count"`
	NodesByType map[string]int `json:"nodes_by_type"`
	EdgesByType map[string]int `json:"edges_by_type"`
}

// MetadataNodeID returns the composite id of a metadata node.
func MetadataNodeID(objectType, objectName string) string {
	return fmt.Sprintf("metadata:%s:%s", objectType, objectName)
}

// MethodNodeID returns the composite id of a method node.
func MethodNodeID(objectType, objectName, moduleName, methodName string) string {
	return fmt.Sprintf("method:%s:%s:%s:%s", objectType, objectName, moduleName, methodName)
}

// FormNodeID returns the composite id of a form node.
func FormNodeID(objectType, objectName, formName string) string {
	return fmt.Sprintf("form:%s:%s:%s", objectType, objectName, formName)
}
