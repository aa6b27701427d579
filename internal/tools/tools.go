// Package tools exposes the reference graph and the optional search
// layer over MCP.
package tools

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/KvitunAA/1c-vector-search/internal/config"
	"github.com/KvitunAA/1c-vector-search/internal/export"
	"github.com/KvitunAA/1c-vector-search/internal/graph"
)

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp    *mcp.Server
	store  *graph.Store
	cfg    *config.Config
	search export.SearchProvider

	indexMu sync.Mutex
}

// NewServer creates an MCP server with all tools registered. The search
// tools appear only when a SearchProvider is given.
func NewServer(store *graph.Store, cfg *config.Config, search export.SearchProvider) *Server {
	srv := &Server{
		store:  store,
		cfg:    cfg,
		search: search,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "1c-graph-mcp",
				Version: "0.1.0",
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	// 1. index_configuration
	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_configuration",
		Description: "Rebuild the reference graph from a 1C configuration export. Scans metadata descriptors, segments module code, parses forms, and stores metadata/method/form nodes with HAS_METHOD, HAS_FORM and USES_IN_CODE edges.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"config_path": {
					"type": "string",
					"description": "Path to the configuration export root. If omitted, uses the configured CONFIG_PATH."
				}
			}
		}`),
	}, s.handleIndexConfiguration)

	// 2. graph_dependencies
	s.mcp.AddTool(&mcp.Tool{
		Name:        "graph_dependencies",
		Description: "Dependency analysis: which objects reference the given object. Use to estimate the impact of changing it.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"object_name": {
					"type": "string",
					"description": "Metadata object name (e.g. 'Номенклатура', 'Сотрудники')"
				},
				"limit": {
					"type": "integer",
					"description": "Max results (default 100)"
				}
			},
			"required": ["object_name"]
		}`),
	}, s.handleGraphDependencies)

	// 3. graph_references
	s.mcp.AddTool(&mcp.Tool{
		Name:        "graph_references",
		Description: "Reference analysis: which objects the given object uses in its code and structure.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"object_name": {
					"type": "string",
					"description": "Metadata object name"
				},
				"limit": {
					"type": "integer",
					"description": "Max results (default 100)"
				}
			},
			"required": ["object_name"]
		}`),
	}, s.handleGraphReferences)

	// 4. graph_stats
	s.mcp.AddTool(&mcp.Tool{
		Name:        "graph_stats",
		Description: "Graph database statistics: node and edge totals with per-kind breakdowns.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleGraphStats)

	// 5. find_object
	s.mcp.AddTool(&mcp.Tool{
		Name:        "find_object",
		Description: "Look up everything the graph knows about one configuration object by exact name: its metadata node, methods and forms.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"object_name": {
					"type": "string",
					"description": "Exact object name (e.g. 'Номенклатура')"
				}
			},
			"required": ["object_name"]
		}`),
	}, s.handleFindObject)

	if s.search != nil {
		s.registerSearchTools()
	}
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getBoolArg extracts a boolean argument from parsed args.
func getBoolArg(args map[string]any, key string) bool {
	v, ok := args[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		return false
	}
	return b
}

// searchLimit clamps a requested limit to the configured bounds.
func (s *Server) searchLimit(args map[string]any) int {
	limit := getIntArg(args, "limit", s.cfg.DefaultSearchLimit)
	if limit < 1 {
		limit = s.cfg.DefaultSearchLimit
	}
	if limit > s.cfg.MaxSearchLimit {
		limit = s.cfg.MaxSearchLimit
	}
	return limit
}
