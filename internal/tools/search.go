package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Method usage lookup has its own, wider limit bounds than the other
// search tools, and its code context is cut to keep responses small.
const (
	methodUsageDefaultLimit = 10
	methodUsageMaxLimit     = 50
	methodUsageContextChars = 500
)

// registerSearchTools adds the semantic search tools. Called only when
// a SearchProvider is configured.
func (s *Server) registerSearchTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "search_1c_code",
		Description: "Semantic search over 1C module code. Finds procedures, functions and code fragments from a natural-language description, e.g. 'проведение документа', 'расчет НДС'.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Description of the code or functionality to find"
				},
				"limit": {
					"type": "integer",
					"description": "Number of results (default 5)"
				},
				"only_export": {
					"type": "boolean",
					"description": "Return only exported methods"
				}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchCode)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "search_1c_metadata",
		Description: "Search 1C metadata objects (catalogs, documents, registers) by name, synonym or description.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Object name or description"
				},
				"object_type": {
					"type": "string",
					"description": "Canonical object type filter (e.g. 'Catalogs', 'Documents')"
				},
				"limit": {
					"type": "integer",
					"description": "Number of results (default 5)"
				}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchMetadata)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "find_1c_method_usage",
		Description: "Find where a specific procedure or function is used across the configuration. Searches module code for mentions of the method name.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"method_name": {
					"type": "string",
					"description": "Procedure or function name to look for"
				},
				"limit": {
					"type": "integer",
					"description": "Max usages to return (default 10, max 50)"
				}
			},
			"required": ["method_name"]
		}`),
	}, s.handleFindMethodUsage)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "search_1c_forms",
		Description: "Search 1C forms by name or description.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Form name or description"
				},
				"limit": {
					"type": "integer",
					"description": "Number of results (default 5)"
				}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchForms)
}

func (s *Server) handleSearchCode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	query := getStringArg(args, "query")
	if query == "" {
		return errResult("missing required 'query' parameter"), nil
	}
	limit := s.searchLimit(args)
	onlyExport := getBoolArg(args, "only_export")

	results, err := s.search.SearchCode(ctx, query, limit)
	if err != nil {
		return errResult(fmt.Sprintf("code search failed: %v", err)), nil
	}

	var formatted []map[string]any
	for _, r := range results {
		if onlyExport && !metaBool(r.Meta, "is_export") {
			continue
		}
		formatted = append(formatted, map[string]any{
			"rank":      r.Rank,
			"relevance": r.Relevance,
			"object":    metaString(r.Meta, "object_name"),
			"module":    metaString(r.Meta, "module_name"),
			"method":    metaString(r.Meta, "method_name"),
			"signature": metaString(r.Meta, "signature"),
			"is_export": metaBool(r.Meta, "is_export"),
			"code":      r.Document,
			"file_path": metaString(r.Meta, "file_path"),
		})
	}

	return jsonResult(map[string]any{
		"query":         query,
		"total_results": len(formatted),
		"results":       formatted,
	}), nil
}

func (s *Server) handleSearchMetadata(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	query := getStringArg(args, "query")
	if query == "" {
		return errResult("missing required 'query' parameter"), nil
	}
	objectType := getStringArg(args, "object_type")
	limit := s.searchLimit(args)

	results, err := s.search.SearchMetadata(ctx, query, objectType, limit)
	if err != nil {
		return errResult(fmt.Sprintf("metadata search failed: %v", err)), nil
	}

	var formatted []map[string]any
	for _, r := range results {
		formatted = append(formatted, map[string]any{
			"rank":             r.Rank,
			"relevance":        r.Relevance,
			"type":             metaString(r.Meta, "object_type"),
			"name":             metaString(r.Meta, "object_name"),
			"synonym":          metaString(r.Meta, "synonym"),
			"description":      metaString(r.Meta, "description"),
			"attributes_count": r.Meta["attributes_count"],
			"file_path":        metaString(r.Meta, "file_path"),
		})
	}

	return jsonResult(map[string]any{
		"query":              query,
		"object_type_filter": objectType,
		"total_results":      len(formatted),
		"results":            formatted,
	}), nil
}

func (s *Server) handleFindMethodUsage(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	methodName := getStringArg(args, "method_name")
	if methodName == "" {
		return errResult("missing required 'method_name' parameter"), nil
	}
	limit := getIntArg(args, "limit", methodUsageDefaultLimit)
	if limit < 1 {
		limit = methodUsageDefaultLimit
	}
	if limit > methodUsageMaxLimit {
		limit = methodUsageMaxLimit
	}

	// Over-fetch, then keep only documents that actually mention the
	// method: semantic ranking alone returns near-misses.
	results, err := s.search.SearchCode(ctx, "вызов "+methodName, limit*2)
	if err != nil {
		return errResult(fmt.Sprintf("usage search failed: %v", err)), nil
	}

	needle := strings.ToLower(methodName)
	var usages []map[string]any
	for _, r := range results {
		if !strings.Contains(strings.ToLower(r.Document), needle) {
			continue
		}
		usages = append(usages, map[string]any{
			"relevance":    r.Relevance,
			"object":       metaString(r.Meta, "object_name"),
			"module":       metaString(r.Meta, "module_name"),
			"in_method":    metaString(r.Meta, "method_name"),
			"code_context": truncateContext(r.Document),
			"file_path":    metaString(r.Meta, "file_path"),
		})
		if len(usages) >= limit {
			break
		}
	}

	return jsonResult(map[string]any{
		"method_name":  methodName,
		"total_usages": len(usages),
		"usages":       usages,
	}), nil
}

// truncateContext cuts a code document for the usage response. Counting
// is rune-based so a cut never splits a multi-byte character.
func truncateContext(doc string) string {
	runes := []rune(doc)
	if len(runes) <= methodUsageContextChars {
		return doc
	}
	return string(runes[:methodUsageContextChars]) + "..."
}

func (s *Server) handleSearchForms(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	query := getStringArg(args, "query")
	if query == "" {
		return errResult("missing required 'query' parameter"), nil
	}
	limit := s.searchLimit(args)

	results, err := s.search.SearchForms(ctx, query, limit)
	if err != nil {
		return errResult(fmt.Sprintf("form search failed: %v", err)), nil
	}

	var formatted []map[string]any
	for _, r := range results {
		formatted = append(formatted, map[string]any{
			"rank":           r.Rank,
			"relevance":      r.Relevance,
			"form_name":      metaString(r.Meta, "form_name"),
			"object":         metaString(r.Meta, "object_type") + "." + metaString(r.Meta, "object_name"),
			"elements_count": r.Meta["elements_count"],
			"file_path":      metaString(r.Meta, "file_path"),
		})
	}

	return jsonResult(map[string]any{
		"query":         query,
		"total_results": len(formatted),
		"results":       formatted,
	}), nil
}

func metaString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

func metaBool(meta map[string]any, key string) bool {
	if b, ok := meta[key].(bool); ok {
		return b
	}
	return false
}
