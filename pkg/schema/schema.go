// Package schema holds the per-type field schemas and the completeness
// evaluator. Each record type declares the fields it requires and the
// fields it recommends; unrecognized types fall back to a minimal default
// schema so an unknown type never fails the check.
package schema

import (
	"io"

	"github.com/goccy/go-yaml"

	"github.com/refmend/refmend/pkg/bib"
	"github.com/refmend/refmend/pkg/errors"
)

// FieldSchema declares the required and recommended fields for one record
// type. Slice order is declaration order and is preserved in results.
type FieldSchema struct {
	Required    []string `yaml:"required"`
	Recommended []string `yaml:"recommended"`
}

// Default is the minimal schema applied to unrecognized record types.
var Default = FieldSchema{
	Required: []string{bib.FieldTitle, bib.FieldCreators},
}

func builtin() map[string]FieldSchema {
	return map[string]FieldSchema{
		"journalArticle": {
			Required:    []string{bib.FieldTitle, bib.FieldCreators, bib.FieldPublicationTitle, bib.FieldVolume, bib.FieldIssue, bib.FieldPages, bib.FieldDate},
			Recommended: []string{bib.FieldDOI, bib.FieldAbstractNote, bib.FieldURL},
		},
		"book": {
			Required:    []string{bib.FieldTitle, bib.FieldCreators, bib.FieldPublisher, bib.FieldDate},
			Recommended: []string{bib.FieldISBN, bib.FieldAbstractNote, bib.FieldURL},
		},
		"bookSection": {
			Required:    []string{bib.FieldTitle, bib.FieldCreators, bib.FieldBookTitle, bib.FieldPublisher},
			Recommended: []string{bib.FieldPages, bib.FieldDate, bib.FieldISBN},
		},
		"conferencePaper": {
			Required:    []string{bib.FieldTitle, bib.FieldCreators, bib.FieldConferenceName, bib.FieldDate},
			Recommended: []string{bib.FieldDOI, bib.FieldPages, bib.FieldPublisher},
		},
		"thesis": {
			Required:    []string{bib.FieldTitle, bib.FieldCreators, bib.FieldUniversity, bib.FieldDate},
			Recommended: []string{bib.FieldURL, bib.FieldAbstractNote},
		},
		"report": {
			Required:    []string{bib.FieldTitle, bib.FieldCreators, bib.FieldInstitution, bib.FieldDate},
			Recommended: []string{bib.FieldURL, bib.FieldPages},
		},
		"webpage": {
			Required:    []string{bib.FieldTitle, bib.FieldURL},
			Recommended: []string{bib.FieldCreators, bib.FieldDate, bib.FieldAbstractNote},
		},
	}
}

// Table maps record types to their field schemas.
type Table struct {
	schemas map[string]FieldSchema
}

// NewTable creates a Table with the built-in schemas.
func NewTable() *Table {
	return &Table{schemas: builtin()}
}

// LoadTable reads a YAML schema document and overlays it on the built-in
// table. The document maps record types to {required, recommended} lists;
// a listed type replaces its built-in schema entirely.
func LoadTable(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &errors.ConfigError{Component: "schema", Message: "reading schema table", Err: err}
	}

	var overlay map[string]FieldSchema
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, &errors.ConfigError{Component: "schema", Message: "parsing schema table", Err: err}
	}

	table := NewTable()
	for recordType, fs := range overlay {
		table.schemas[recordType] = fs
	}
	return table, nil
}

// Lookup returns the schema for a record type, falling back to Default for
// unrecognized types.
func (t *Table) Lookup(recordType string) FieldSchema {
	if fs, ok := t.schemas[recordType]; ok {
		return fs
	}
	return Default
}

// Types returns the record types the table knows about.
func (t *Table) Types() []string {
	types := make([]string, 0, len(t.schemas))
	for recordType := range t.schemas {
		types = append(types, recordType)
	}
	return types
}
