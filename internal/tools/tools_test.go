package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/KvitunAA/1c-vector-search/internal/config"
	"github.com/KvitunAA/1c-vector-search/internal/export"
	"github.com/KvitunAA/1c-vector-search/internal/graph"
)

func newTestServer(t *testing.T, search export.SearchProvider) *Server {
	t.Helper()
	store, err := graph.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	cfg := &config.Config{
		DefaultSearchLimit: config.DefaultSearchLimit,
		MaxSearchLimit:     config.MaxSearchLimit,
	}
	return NewServer(store, cfg, search)
}

func callReq(argsJSON string) *mcp.CallToolRequest {
	req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{}}
	if argsJSON != "" {
		req.Params.Arguments = json.RawMessage(argsJSON)
	}
	return req
}

// resultJSON unmarshals the single text content of a tool result.
func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected error result: %v", res.Content)
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content: %T", res.Content[0])
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(text.Text), &m); err != nil {
		t.Fatalf("bad result json: %v\n%s", err, text.Text)
	}
	return m
}

func seedGraph(t *testing.T, s *Server) {
	t.Helper()
	docID, err := s.store.EnsureMetadataNode("Documents", "Продажа", "")
	if err != nil {
		t.Fatal(err)
	}
	catID, err := s.store.EnsureMetadataNode("Catalogs", "Товары", "Номенклатура")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.store.AddEdge(docID, catID, graph.EdgeUsesInCode, nil); err != nil {
		t.Fatal(err)
	}
	methodID := graph.MethodNodeID("Documents", "Продажа", "ObjectModule", "Провести")
	err = s.store.AddNode(&graph.Node{
		ID:         methodID,
		Type:       graph.NodeMethod,
		Name:       "Провести",
		ObjectType: "Documents",
		ObjectName: "Продажа",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.store.AddEdge(docID, methodID, graph.EdgeHasMethod, nil); err != nil {
		t.Fatal(err)
	}
}

func TestHandleGraphDependencies(t *testing.T) {
	s := newTestServer(t, nil)
	seedGraph(t, s)

	res, err := s.handleGraphDependencies(context.Background(), callReq(`{"object_name":"Товары"}`))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	m := resultJSON(t, res)
	if m["total_count"].(float64) != 1 {
		t.Fatalf("total_count: got %v", m["total_count"])
	}
	deps := m["dependencies"].([]any)
	first := deps[0].(map[string]any)
	if first["node_id"] != "metadata:Documents:Продажа" || first["edge_type"] != "USES_IN_CODE" {
		t.Errorf("dependency row: got %v", first)
	}
}

func TestHandleGraphReferencesMissingArg(t *testing.T) {
	s := newTestServer(t, nil)

	res, err := s.handleGraphReferences(context.Background(), callReq(""))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result for missing object_name")
	}
}

func TestHandleGraphStats(t *testing.T) {
	s := newTestServer(t, nil)
	seedGraph(t, s)

	res, err := s.handleGraphStats(context.Background(), callReq(""))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	m := resultJSON(t, res)
	if m["nodes_count"].(float64) != 3 || m["edges_count"].(float64) != 2 {
		t.Errorf("stats: got %v", m)
	}
	byType := m["nodes_by_type"].(map[string]any)
	if byType["Metadata"].(float64) != 2 || byType["Method"].(float64) != 1 {
		t.Errorf("nodes_by_type: got %v", byType)
	}
}

func TestHandleFindObject(t *testing.T) {
	s := newTestServer(t, nil)
	seedGraph(t, s)

	res, err := s.handleFindObject(context.Background(), callReq(`{"object_name":"Продажа"}`))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	m := resultJSON(t, res)
	meta := m["metadata"].(map[string]any)
	if meta["node_id"] != "metadata:Documents:Продажа" {
		t.Errorf("metadata: got %v", meta)
	}
	if m["methods_count"].(float64) != 1 {
		t.Errorf("methods_count: got %v", m["methods_count"])
	}

	res, err = s.handleFindObject(context.Background(), callReq(`{"object_name":"Нет"}`))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if m := resultJSON(t, res); m["error"] == nil {
		t.Errorf("expected error payload, got %v", m)
	}
}

func TestHandleIndexConfiguration(t *testing.T) {
	s := newTestServer(t, nil)

	root := t.TempDir()
	writeFixture(t, filepath.Join(root, "Catalogs", "Товары.xml"),
		`<Catalog xmlns:v8="http://v8.1c.ru/8.3/MDClasses"><v8:name>Товары</v8:name></Catalog>`)
	writeFixture(t, filepath.Join(root, "Catalogs", "Товары", "Ext", "ObjectModule.bsl"),
		"Процедура При() \n\tА = 1;\nКонецПроцедуры")

	args, _ := json.Marshal(map[string]any{"config_path": root})
	res, err := s.handleIndexConfiguration(context.Background(), callReq(string(args)))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	m := resultJSON(t, res)
	if m["metadata_objects"].(float64) != 1 || m["methods"].(float64) != 1 {
		t.Errorf("index result: got %v", m)
	}
	if m["edges"].(float64) != 1 {
		t.Errorf("edges: got %v", m["edges"])
	}
}

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fakeSearch returns canned results for the search tool handlers.
type fakeSearch struct{}

func (fakeSearch) SearchCode(_ context.Context, query string, limit int) ([]export.SearchResult, error) {
	return []export.SearchResult{
		{Rank: 1, Relevance: 0.9, Document: "Процедура А()", Meta: map[string]any{
			"object_name": "Documents.Продажа", "method_name": "А", "is_export": true,
		}},
		{Rank: 2, Relevance: 0.5, Document: "Процедура Б()", Meta: map[string]any{
			"object_name": "Documents.Продажа", "method_name": "Б", "is_export": false,
		}},
	}, nil
}

func (fakeSearch) SearchMetadata(_ context.Context, query, objectType string, limit int) ([]export.SearchResult, error) {
	return []export.SearchResult{
		{Rank: 1, Relevance: 0.8, Document: "Тип: Catalogs", Meta: map[string]any{
			"object_type": "Catalogs", "object_name": "Товары",
		}},
	}, nil
}

func (fakeSearch) SearchForms(_ context.Context, query string, limit int) ([]export.SearchResult, error) {
	return nil, nil
}

func TestHandleSearchCodeOnlyExport(t *testing.T) {
	s := newTestServer(t, fakeSearch{})

	res, err := s.handleSearchCode(context.Background(), callReq(`{"query":"проведение","only_export":true}`))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	m := resultJSON(t, res)
	if m["total_results"].(float64) != 1 {
		t.Fatalf("total_results: got %v", m["total_results"])
	}
	first := m["results"].([]any)[0].(map[string]any)
	if first["method"] != "А" || first["is_export"] != true {
		t.Errorf("result row: got %v", first)
	}
}

func TestHandleFindMethodUsage(t *testing.T) {
	s := newTestServer(t, fakeSearch{})

	res, err := s.handleFindMethodUsage(context.Background(), callReq(`{"method_name":"Б"}`))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	m := resultJSON(t, res)
	// Only the document that mentions the method counts as a usage.
	if m["total_usages"].(float64) != 1 {
		t.Fatalf("total_usages: got %v", m["total_usages"])
	}
	first := m["usages"].([]any)[0].(map[string]any)
	if first["in_method"] != "Б" || first["code_context"] != "Процедура Б()" {
		t.Errorf("usage row: got %v", first)
	}

	res, err = s.handleFindMethodUsage(context.Background(), callReq(""))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result for missing method_name")
	}
}

func TestTruncateContext(t *testing.T) {
	long := strings.Repeat("Ж", methodUsageContextChars+100)
	got := truncateContext(long)
	if utf8.RuneCountInString(got) != methodUsageContextChars+3 {
		t.Errorf("rune count: got %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "...") || !utf8.ValidString(got) {
		t.Errorf("truncated context: %q", got)
	}
	if short := truncateContext("Процедура А()"); short != "Процедура А()" {
		t.Errorf("short context changed: %q", short)
	}
}

func TestSearchLimitUsesOverriddenConfig(t *testing.T) {
	store, err := graph.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, config.OverridesFile),
		"search:\n  default_limit: 2\n  max_limit: 4\n")

	cfg := &config.Config{
		DefaultSearchLimit: config.DefaultSearchLimit,
		MaxSearchLimit:     config.MaxSearchLimit,
	}
	cfg.ApplyOverrides(config.LoadOverrides(dir))
	s := NewServer(store, cfg, nil)

	if got := s.searchLimit(map[string]any{}); got != 2 {
		t.Errorf("default limit: got %d, want 2", got)
	}
	if got := s.searchLimit(map[string]any{"limit": float64(100)}); got != 4 {
		t.Errorf("max limit: got %d, want 4", got)
	}
}

func TestSearchLimitClamp(t *testing.T) {
	s := newTestServer(t, nil)

	cases := map[string]int{
		`{"limit":100}`: config.MaxSearchLimit,
		`{"limit":-2}`:  config.DefaultSearchLimit,
		`{}`:            config.DefaultSearchLimit,
		`{"limit":7}`:   7,
	}
	for argsJSON, want := range cases {
		var args map[string]any
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			t.Fatal(err)
		}
		if got := s.searchLimit(args); got != want {
			t.Errorf("%s: got %d, want %d", argsJSON, got, want)
		}
	}
}
