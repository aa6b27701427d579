// Package export flattens scan results into self-contained text
// documents for an external search/embedding layer, and defines the
// provider interface the tool layer consumes to query that layer.
package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/KvitunAA/1c-vector-search/internal/metadata"
	"github.com/KvitunAA/1c-vector-search/internal/scanner"
)

// maxFormElements caps how many element names a form document lists.
const maxFormElements = 20

// Document is one flattened search document. Hash is a stable content
// hash of Text, usable for change detection by the consumer.
type Document struct {
	ID   string
	Text string
	Hash uint64
	Meta map[string]any
}

// Builder assembles documents. MaxChars > 0 truncates each document
// text to that many characters with a trailing ellipsis.
type Builder struct {
	MaxChars int
}

// CodeDocuments flattens every method of every scanned module into one
// document: comment block, then signature, then reconstructed code.
// Ids are positional across the whole slice.
func (b Builder) CodeDocuments(mods []scanner.ModuleScan) []Document {
	var docs []Document
	for _, mod := range mods {
		for _, m := range mod.Methods {
			var parts []string
			if len(m.Comments) > 0 {
				parts = append(parts, "// "+strings.Join(m.Comments, "\n// "))
			}
			parts = append(parts, m.Signature, m.Code)
			text := b.truncate(strings.Join(parts, "\n"))
			docs = append(docs, Document{
				ID:   fmt.Sprintf("code_%d_%s", len(docs), m.Name),
				Text: text,
				Hash: xxh3.HashString(text),
				Meta: map[string]any{
					"object_name": mod.FullName,
					"module_name": moduleName(mod.Path),
					"method_name": m.Name,
					"method_type": string(m.Kind),
					"is_export":   m.Export,
					"signature":   m.Signature,
					"file_path":   m.FilePath,
				},
			})
		}
	}
	return docs
}

// MetadataDocuments flattens object records into localized key/value
// text documents.
func (b Builder) MetadataDocuments(recs []*metadata.ObjectRecord) []Document {
	var docs []Document
	for i, rec := range recs {
		objType := rec.TypeDir
		if objType == "" {
			objType = rec.Type
		}
		parts := []string{
			"Тип: " + objType,
			"Имя: " + rec.Name,
			"Синоним: " + rec.Synonym,
			"Комментарий: " + rec.Comment,
		}
		if len(rec.Attributes) > 0 {
			attrs := make([]string, len(rec.Attributes))
			for j, a := range rec.Attributes {
				attrs[j] = fmt.Sprintf("%s (%s)", a.Name, a.Type)
			}
			parts = append(parts, "Реквизиты: "+strings.Join(attrs, ", "))
		}
		if len(rec.TabularSections) > 0 {
			parts = append(parts, "Табличные части: "+strings.Join(rec.TabularSections, ", "))
		}
		text := b.truncate(strings.Join(parts, "\n"))
		docs = append(docs, Document{
			ID:   fmt.Sprintf("metadata_%s_%s_%d", objType, rec.Name, i),
			Text: text,
			Hash: xxh3.HashString(text),
			Meta: map[string]any{
				"object_name":      rec.Name,
				"object_type":      objType,
				"synonym":          rec.Synonym,
				"description":      rec.Comment,
				"has_modules":      strings.Join(rec.Modules, ","),
				"attributes_count": len(rec.Attributes),
				"file_path":        rec.FilePath,
			},
		})
	}
	return docs
}

// FormDocuments flattens form records; only the first twenty element
// names go into the text.
func (b Builder) FormDocuments(forms []*metadata.FormRecord) []Document {
	var docs []Document
	for i, form := range forms {
		parts := []string{
			"Форма: " + form.FormName,
			"Объект: " + form.ObjectType + " " + form.ObjectName,
		}
		if len(form.Elements) > 0 {
			elements := form.Elements
			if len(elements) > maxFormElements {
				elements = elements[:maxFormElements]
			}
			parts = append(parts, "Элементы: "+strings.Join(elements, ", "))
		}
		text := b.truncate(strings.Join(parts, "\n"))
		docs = append(docs, Document{
			ID:   fmt.Sprintf("form_%s_%s_%d", form.ObjectName, form.FormName, i),
			Text: text,
			Hash: xxh3.HashString(text),
			Meta: map[string]any{
				"form_name":      form.FormName,
				"object_name":    form.ObjectName,
				"object_type":    form.ObjectType,
				"elements_count": len(form.Elements),
				"file_path":      form.FilePath,
			},
		})
	}
	return docs
}

// truncate cuts text to MaxChars characters, ellipsis included. Counting
// is rune-based so a cut never splits a multi-byte character.
func (b Builder) truncate(text string) string {
	if b.MaxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= b.MaxChars {
		return text
	}
	return string(runes[:b.MaxChars-3]) + "..."
}

func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SearchResult is one ranked hit from the search layer.
type SearchResult struct {
	Rank      int            `json:"rank"`
	Relevance float64        `json:"relevance"`
	Document  string         `json:"document"`
	Meta      map[string]any `json:"metadata"`
}

// SearchProvider is the interface an external search/embedding layer
// implements over the exported documents. The tool layer registers its
// search tools only when a provider is present.
type SearchProvider interface {
	SearchCode(ctx context.Context, query string, limit int) ([]SearchResult, error)
	SearchMetadata(ctx context.Context, query, objectType string, limit int) ([]SearchResult, error)
	SearchForms(ctx context.Context, query string, limit int) ([]SearchResult, error)
}
