// Package scanner walks a 1C configuration export and turns it into
// module, metadata and form record streams for the indexer.
package scanner

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/KvitunAA/1c-vector-search/internal/bsl"
	"github.com/KvitunAA/1c-vector-search/internal/metadata"
)

// MetadataDirs is the fixed, ordered list of taxonomy directories
// enumerated by the metadata scan.
var MetadataDirs = []string{
	"Catalogs", "Documents", "InformationRegisters",
	"AccumulationRegisters", "AccountingRegisters",
	"DataProcessors", "Reports", "CommonModules",
	"Enums", "ChartsOfAccounts",
}

// defaultIgnoreDirs are never descended into.
var defaultIgnoreDirs = map[string]bool{
	".git": true,
	".hg":  true,
	".svn": true,
}

// ModuleScan is one scanned module file with its segmented methods.
type ModuleScan struct {
	Path       string
	ObjectType string
	ObjectName string
	FullName   string // "ObjectType.ObjectName"
	Methods    []bsl.MethodRecord
}

// Scanner walks one configuration root.
type Scanner struct {
	root       string
	ignoreDirs map[string]bool
}

// New creates a Scanner for the given configuration root. extraIgnore
// names additional directories to skip.
func New(root string, extraIgnore []string) *Scanner {
	ignore := make(map[string]bool, len(defaultIgnoreDirs)+len(extraIgnore))
	for name := range defaultIgnoreDirs {
		ignore[name] = true
	}
	for _, name := range extraIgnore {
		ignore[name] = true
	}
	return &Scanner{root: root, ignoreDirs: ignore}
}

// Root returns the configuration root the scanner was created with.
func (s *Scanner) Root() string {
	return s.root
}

func (s *Scanner) relParts(path string) []string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return nil
	}
	return strings.Split(filepath.ToSlash(rel), "/")
}

// ScanModules finds every module file under the root and segments it.
// Files that produce no methods (unreadable or empty) are dropped.
func (s *Scanner) ScanModules() ([]ModuleScan, error) {
	var results []ModuleScan
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if s.ignoreDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".bsl") {
			return nil
		}
		parts := s.relParts(path)
		if len(parts) == 0 {
			return nil
		}
		objectType := parts[0]
		objectName := fileStem(path)
		if len(parts) > 1 {
			objectName = parts[1]
		}
		methods := bsl.ParseModule(path)
		if len(methods) == 0 {
			return nil
		}
		results = append(results, ModuleScan{
			Path:       path,
			ObjectType: objectType,
			ObjectName: objectName,
			FullName:   objectType + "." + objectName,
			Methods:    methods,
		})
		slog.Info("scan.module", "path", strings.Join(parts, "/"), "methods", len(methods))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ScanMetadata enumerates the taxonomy directories in fixed order and
// parses object descriptors, deduplicating by (directory, base name):
// the first occurrence wins across both enumeration passes.
func (s *Scanner) ScanMetadata() []*metadata.ObjectRecord {
	var results []*metadata.ObjectRecord
	seen := make(map[[2]string]bool)

	for _, dirName := range MetadataDirs {
		dirPath := filepath.Join(s.root, dirName)
		entries, err := os.ReadDir(dirPath)
		if err != nil {
			continue
		}

		// Pass 1: immediate-child descriptors.
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
				continue
			}
			s.collectDescriptor(dirName, filepath.Join(dirPath, entry.Name()), seen, &results)
		}

		// Pass 2: one-level-nested descriptors whose parent directory
		// matches their own base name. Descriptors under Forms,
		// Commands or extension folders are not object-level.
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			subPath := filepath.Join(dirPath, entry.Name())
			subEntries, err := os.ReadDir(subPath)
			if err != nil {
				continue
			}
			for _, sub := range subEntries {
				if sub.IsDir() || !strings.EqualFold(filepath.Ext(sub.Name()), ".xml") {
					continue
				}
				xmlPath := filepath.Join(subPath, sub.Name())
				rel := strings.Join(s.relParts(xmlPath), "/")
				if strings.Contains(rel, "Forms") || strings.Contains(rel, "Commands") || strings.Contains(rel, "Ext") {
					continue
				}
				if entry.Name() != stripExt(sub.Name()) {
					continue
				}
				s.collectDescriptor(dirName, xmlPath, seen, &results)
			}
		}
	}
	return results
}

func (s *Scanner) collectDescriptor(dirName, xmlPath string, seen map[[2]string]bool, results *[]*metadata.ObjectRecord) {
	key := [2]string{dirName, fileStem(xmlPath)}
	if seen[key] {
		slog.Debug("scan.metadata.duplicate", "dir", dirName, "name", key[1])
		return
	}
	rec, err := metadata.ParseObject(xmlPath)
	if err != nil {
		slog.Error("scan.metadata.skip", "path", xmlPath, "err", err)
		return
	}
	rec.TypeDir = dirName
	seen[key] = true
	*results = append(*results, rec)
	slog.Info("scan.metadata", "name", rec.Name, "dir", dirName)
}

// ScanForms finds form descriptors in the two recognized path shapes
// (Forms/<name>/Form.xml, then Forms/<name>/Ext/Form.xml) and attaches
// the owning object when the path is deep enough to carry one.
func (s *Scanner) ScanForms() []*metadata.FormRecord {
	var direct, nested []string
	_ = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if s.ignoreDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != "Form.xml" {
			return nil
		}
		parent := filepath.Dir(path)
		grand := filepath.Dir(parent)
		switch {
		case filepath.Base(grand) == "Forms":
			direct = append(direct, path)
		case filepath.Base(parent) == "Ext" && filepath.Base(filepath.Dir(grand)) == "Forms":
			nested = append(nested, path)
		}
		return nil
	})

	var results []*metadata.FormRecord
	for _, path := range append(direct, nested...) {
		rec, err := metadata.ParseForm(path)
		if err != nil {
			slog.Error("scan.form.skip", "path", path, "err", err)
			continue
		}
		if parts := s.relParts(path); len(parts) >= 3 {
			rec.ObjectType = parts[0]
			rec.ObjectName = parts[1]
		}
		results = append(results, rec)
		slog.Info("scan.form", "name", rec.FormName)
	}
	return results
}

func fileStem(path string) string {
	return stripExt(filepath.Base(path))
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
