package metadata

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// FormRecord is the parsed layout of one UI form descriptor.
// ObjectType and ObjectName are assigned by the scanner from the form's
// position in the configuration tree.
type FormRecord struct {
	FormName   string
	ObjectType string
	ObjectName string
	Elements   []string // UI element names, document order, duplicates allowed
	FilePath   string
}

// ParseForm parses one form descriptor. The form name comes from the
// directory shape: a descriptor named Form.xml takes its parent
// directory's name, or the grandparent's when the parent is the Ext
// extension folder.
func ParseForm(path string) (*FormRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form: %w", err)
	}
	var root element
	if err := xml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("parse form %s: %w", path, err)
	}

	var elements []string
	for _, item := range root.findAll(nsLogForm, "Item") {
		if name := item.attr("name"); name != "" {
			elements = append(elements, name)
		}
	}

	formName := fileStem(path)
	if formName == "Form" {
		parent := filepath.Dir(path)
		if filepath.Base(parent) == "Ext" {
			formName = filepath.Base(filepath.Dir(parent))
		} else {
			formName = filepath.Base(parent)
		}
	}

	return &FormRecord{
		FormName: formName,
		Elements: elements,
		FilePath: path,
	}, nil
}
