// Package indexer drives a full graph rebuild from one configuration
// export: metadata nodes first, then method and form nodes with their
// HAS_METHOD, HAS_FORM and USES_IN_CODE edges.
package indexer

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/KvitunAA/1c-vector-search/internal/bsl"
	"github.com/KvitunAA/1c-vector-search/internal/graph"
	"github.com/KvitunAA/1c-vector-search/internal/scanner"
)

// alwaysAcceptable are the canonical object types whose code references
// produce USES_IN_CODE edges even when the target never appeared in the
// metadata scan.
var alwaysAcceptable = map[string]bool{
	"Catalogs":              true,
	"Documents":             true,
	"InformationRegisters":  true,
	"AccumulationRegisters": true,
	"CommonModules":         true,
	"Enums":                 true,
	"DataProcessors":        true,
	"Reports":               true,
}

// Result summarizes one indexing run.
type Result struct {
	MetadataObjects int
	Modules         int
	Methods         int
	Forms           int
	Edges           int
	Stats           graph.Stats
}

// Indexer rebuilds the graph for one configuration root.
type Indexer struct {
	store *graph.Store
	scan  *scanner.Scanner

	// ClearFirst wipes the graph before rebuilding. A rebuild over a
	// stale graph leaves orphaned nodes, so this defaults to on.
	ClearFirst bool
}

// New creates an Indexer over the given store and scanner.
func New(store *graph.Store, scan *scanner.Scanner) *Indexer {
	return &Indexer{store: store, scan: scan, ClearFirst: true}
}

// Run performs a full rebuild. Per-file parse failures are logged and
// skipped inside the scanner; Run aborts only on store-level errors.
func (ix *Indexer) Run() (*Result, error) {
	slog.Info("index.start", "root", ix.scan.Root())
	if ix.ClearFirst {
		if err := ix.store.Clear(); err != nil {
			return nil, fmt.Errorf("clear graph: %w", err)
		}
	}

	res := &Result{}
	whitelist := make(map[[2]string]bool)
	ensured := make(map[[2]string]string)

	for _, rec := range ix.scan.ScanMetadata() {
		id, err := ix.store.EnsureMetadataNode(rec.TypeDir, rec.Name, rec.Synonym)
		if err != nil {
			return nil, err
		}
		key := [2]string{rec.TypeDir, rec.Name}
		whitelist[key] = true
		ensured[key] = id
		res.MetadataObjects++
	}
	slog.Info("index.metadata", "objects", res.MetadataObjects)

	modules, err := ix.scan.ScanModules()
	if err != nil {
		return nil, fmt.Errorf("scan modules: %w", err)
	}
	for _, mod := range modules {
		if err := ix.indexModule(mod, whitelist, ensured, res); err != nil {
			return nil, err
		}
		res.Modules++
	}
	slog.Info("index.modules", "modules", res.Modules, "methods", res.Methods)

	for _, form := range ix.scan.ScanForms() {
		if form.ObjectType == "" || form.ObjectName == "" {
			slog.Debug("index.form.no_owner", "path", form.FilePath)
			continue
		}
		ownerID, err := ix.ensureOwner(form.ObjectType, form.ObjectName, ensured)
		if err != nil {
			return nil, err
		}
		formID := graph.FormNodeID(form.ObjectType, form.ObjectName, form.FormName)
		err = ix.store.AddNode(&graph.Node{
			ID:         formID,
			Type:       graph.NodeForm,
			Name:       form.FormName,
			ObjectType: form.ObjectType,
			ObjectName: form.ObjectName,
			Extra:      map[string]any{"elements_count": len(form.Elements)},
		})
		if err != nil {
			return nil, err
		}
		if err := ix.store.AddEdge(ownerID, formID, graph.EdgeHasForm, nil); err != nil {
			return nil, err
		}
		res.Forms++
	}
	slog.Info("index.forms", "forms", res.Forms)

	stats, err := ix.store.GetStats()
	if err != nil {
		return nil, fmt.Errorf("graph stats: %w", err)
	}
	res.Stats = *stats
	res.Edges = stats.EdgesCount
	slog.Info("index.done", "nodes", stats.NodesCount, "edges", stats.EdgesCount)
	return res, nil
}

func (ix *Indexer) indexModule(mod scanner.ModuleScan, whitelist map[[2]string]bool, ensured map[[2]string]string, res *Result) error {
	ownerID, err := ix.ensureOwner(mod.ObjectType, mod.ObjectName, ensured)
	if err != nil {
		return err
	}
	moduleName := moduleStem(mod.Path)

	for _, method := range mod.Methods {
		methodID := graph.MethodNodeID(mod.ObjectType, mod.ObjectName, moduleName, method.Name)
		err := ix.store.AddNode(&graph.Node{
			ID:         methodID,
			Type:       graph.NodeMethod,
			Name:       method.Name,
			ObjectType: mod.ObjectType,
			ObjectName: mod.ObjectName,
			Extra: map[string]any{
				"module":    moduleName,
				"signature": method.Signature,
			},
		})
		if err != nil {
			return err
		}
		if err := ix.store.AddEdge(ownerID, methodID, graph.EdgeHasMethod, nil); err != nil {
			return err
		}
		res.Methods++

		for _, ref := range bsl.ExtractReferences(method.Code) {
			key := [2]string{ref.Type, ref.Name}
			if !whitelist[key] && !alwaysAcceptable[ref.Type] {
				continue
			}
			targetID, err := ix.ensureOwner(ref.Type, ref.Name, ensured)
			if err != nil {
				return err
			}
			if err := ix.store.AddEdge(ownerID, targetID, graph.EdgeUsesInCode, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// ensureOwner returns the metadata node id for (objectType, objectName),
// creating the node on first sight. The cache keeps later ensures from
// overwriting a synonym written during the metadata phase.
func (ix *Indexer) ensureOwner(objectType, objectName string, ensured map[[2]string]string) (string, error) {
	key := [2]string{objectType, objectName}
	if id, ok := ensured[key]; ok {
		return id, nil
	}
	id, err := ix.store.EnsureMetadataNode(objectType, objectName, "")
	if err != nil {
		return "", err
	}
	ensured[key] = id
	return id, nil
}

func moduleStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
