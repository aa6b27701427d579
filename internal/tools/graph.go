package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/KvitunAA/1c-vector-search/internal/config"
	"github.com/KvitunAA/1c-vector-search/internal/graph"
	"github.com/KvitunAA/1c-vector-search/internal/indexer"
	"github.com/KvitunAA/1c-vector-search/internal/scanner"
)

func (s *Server) handleIndexConfiguration(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	configPath := getStringArg(args, "config_path")
	if configPath == "" {
		configPath = s.cfg.ConfigPath
	}
	if configPath == "" {
		return errResult("config_path is required: no CONFIG_PATH configured"), nil
	}

	// Serialize rebuilds against the same store.
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	overrides := config.LoadOverrides(configPath)
	scan := scanner.New(configPath, overrides.Scanner.IgnoreDirs)
	res, err := indexer.New(s.store, scan).Run()
	if err != nil {
		return errResult(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"config_path":      configPath,
		"metadata_objects": res.MetadataObjects,
		"modules":          res.Modules,
		"methods":          res.Methods,
		"forms":            res.Forms,
		"nodes":            res.Stats.NodesCount,
		"edges":            res.Stats.EdgesCount,
	}), nil
}

func (s *Server) handleGraphDependencies(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	objectName := getStringArg(args, "object_name")
	if objectName == "" {
		return errResult("missing required 'object_name' parameter"), nil
	}
	limit := getIntArg(args, "limit", graph.DefaultQueryLimit)

	deps, err := s.store.GetDependencies(objectName, limit)
	if err != nil {
		return errResult(fmt.Sprintf("dependency query failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"object_name":  objectName,
		"description":  "Objects that reference the given object",
		"total_count":  len(deps),
		"dependencies": deps,
	}), nil
}

func (s *Server) handleGraphReferences(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	objectName := getStringArg(args, "object_name")
	if objectName == "" {
		return errResult("missing required 'object_name' parameter"), nil
	}
	limit := getIntArg(args, "limit", graph.DefaultQueryLimit)

	refs, err := s.store.GetReferences(objectName, limit)
	if err != nil {
		return errResult(fmt.Sprintf("reference query failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"object_name": objectName,
		"description": "Objects the given object references",
		"total_count": len(refs),
		"references":  refs,
	}), nil
}

func (s *Server) handleGraphStats(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.store.GetStats()
	if err != nil {
		return errResult(fmt.Sprintf("stats query failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"database_path": s.store.Path(),
		"nodes_count":   stats.NodesCount,
		"edges_count":   stats.EdgesCount,
		"nodes_by_type": stats.NodesByType,
		"edges_by_type": stats.EdgesByType,
	}), nil
}

func (s *Server) handleFindObject(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	objectName := getStringArg(args, "object_name")
	if objectName == "" {
		return errResult("missing required 'object_name' parameter"), nil
	}

	nodes, err := s.store.FindNodesByObjectName(objectName)
	if err != nil {
		return errResult(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if len(nodes) == 0 {
		return jsonResult(map[string]any{
			"error":       fmt.Sprintf("object %q not found", objectName),
			"object_name": objectName,
		}), nil
	}

	var meta map[string]any
	var methods, forms []map[string]any
	for _, n := range nodes {
		entry := map[string]any{
			"node_id": n.ID,
			"name":    n.Name,
		}
		if len(n.Extra) > 0 {
			entry["extra"] = n.Extra
		}
		switch n.Type {
		case graph.NodeMetadata:
			meta = map[string]any{
				"node_id":     n.ID,
				"object_type": n.ObjectType,
				"name":        n.Name,
				"synonym":     n.Synonym,
			}
		case graph.NodeMethod:
			methods = append(methods, entry)
		case graph.NodeForm:
			forms = append(forms, entry)
		}
	}

	return jsonResult(map[string]any{
		"object_name":   objectName,
		"metadata":      meta,
		"methods":       methods,
		"methods_count": len(methods),
		"forms":         forms,
		"forms_count":   len(forms),
	}), nil
}
