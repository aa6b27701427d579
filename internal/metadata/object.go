// Package metadata parses 1C configuration-export XML descriptors:
// object descriptors into metadata records and form descriptors into
// form records.
package metadata

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	nsMDClasses = "http://v8.1c.ru/8.3/MDClasses"
	nsDataCore  = "http://v8.1c.ru/8.1/data/core"
	nsLogForm   = "http://v8.1c.ru/8.3/xcf/logform"
)

// Localized type labels produced by attribute type inference.
const (
	TypeString    = "Строка"
	TypeNumber    = "Число"
	TypeDate      = "Дата"
	TypeBoolean   = "Булево"
	TypeComposite = "Составной тип"
	TypeUndefined = "Неопределено"
)

// Attribute is one object attribute with its inferred type label.
type Attribute struct {
	Name string
	Type string
}

// ObjectRecord is the parsed metadata of one configuration object.
// Identity during a scan is (TypeDir, Name); TypeDir is assigned by the
// scanner from the taxonomy directory the descriptor was found under.
type ObjectRecord struct {
	Name            string
	Type            string // root element local name
	TypeDir         string // canonical taxonomy directory
	Synonym         string
	Comment         string
	Attributes      []Attribute
	TabularSections []string
	Modules         []string // module kinds present beside the descriptor
	FilePath        string
}

// moduleProbes are the well-known module filenames checked next to a
// descriptor, in fixed order.
var moduleProbes = []struct {
	file string
	kind string
}{
	{"МодульОбъекта.bsl", "ObjectModule"},
	{"МодульМенеджера.bsl", "ManagerModule"},
	{"МодульНабораЗаписей.bsl", "RecordSetModule"},
	{"МодульКоманды.bsl", "CommandModule"},
	{"Module.bsl", "Module"},
}

// ParseObject parses one object descriptor. Malformed XML is an error
// (the caller skips the file); missing elements degrade to empty
// defaults.
func ParseObject(path string) (*ObjectRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	var root element
	if err := xml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("parse descriptor %s: %w", path, err)
	}

	rec := &ObjectRecord{
		Type:     root.XMLName.Local,
		FilePath: path,
	}

	nameElem := root.findFirst(nsMDClasses, "name")
	if nameElem == nil {
		nameElem = root.findFirst(nsDataCore, "name")
	}
	if nameElem != nil && strings.TrimSpace(nameElem.Text) != "" {
		rec.Name = strings.TrimSpace(nameElem.Text)
	} else {
		rec.Name = fileStem(path)
	}

	if syn := root.findFirst(nsMDClasses, "synonym"); syn != nil {
		for _, item := range syn.findAll(nsMDClasses, "item") {
			if pres := item.child(nsMDClasses, "presentation"); pres != nil {
				rec.Synonym = strings.TrimSpace(pres.Text)
				break
			}
		}
	}
	if comment := root.findFirst(nsMDClasses, "comment"); comment != nil {
		rec.Comment = strings.TrimSpace(comment.Text)
	}

	for _, attrElem := range root.findAll(nsMDClasses, "attributes") {
		nameEl := attrElem.child(nsMDClasses, "name")
		if nameEl == nil {
			continue
		}
		rec.Attributes = append(rec.Attributes, Attribute{
			Name: strings.TrimSpace(nameEl.Text),
			Type: inferType(attrElem.findFirst(nsMDClasses, "type")),
		})
	}

	for _, tabElem := range root.findAll(nsMDClasses, "tabularSections") {
		if nameEl := tabElem.child(nsMDClasses, "name"); nameEl != nil {
			rec.TabularSections = append(rec.TabularSections, strings.TrimSpace(nameEl.Text))
		}
	}

	dir := filepath.Dir(path)
	for _, probe := range moduleProbes {
		if _, err := os.Stat(filepath.Join(dir, probe.file)); err == nil {
			rec.Modules = append(rec.Modules, probe.kind)
		}
	}

	return rec, nil
}

// inferType maps a type element to a localized label. Markers are
// checked in fixed priority order; no marker means a composite type,
// and a missing type element means undefined.
func inferType(typeElem *element) string {
	if typeElem == nil {
		return TypeUndefined
	}
	if typeID := typeElem.findFirst(nsMDClasses, "TypeId"); typeID != nil && strings.TrimSpace(typeID.Text) != "" {
		return strings.TrimSpace(typeID.Text)
	}
	if typeElem.findFirst(nsMDClasses, "string") != nil {
		return TypeString
	}
	if typeElem.findFirst(nsMDClasses, "number") != nil {
		return TypeNumber
	}
	if typeElem.findFirst(nsMDClasses, "date") != nil {
		return TypeDate
	}
	if typeElem.findFirst(nsMDClasses, "boolean") != nil {
		return TypeBoolean
	}
	return TypeComposite
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
