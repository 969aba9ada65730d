package schema

import "github.com/refmend/refmend/pkg/bib"

// Completeness reports the fields missing from a record, split by severity.
// Both lists preserve schema declaration order.
type Completeness struct {
	Required    []string `json:"required"`
	Recommended []string `json:"recommended"`
}

// Complete reports whether nothing is missing.
func (c Completeness) Complete() bool {
	return len(c.Required) == 0 && len(c.Recommended) == 0
}

// Check evaluates a record against the table. A field counts as missing
// when its value is absent or empty after trimming; the creators field
// counts as missing when no structurally valid creator entry exists.
//
// Check is pure and caches nothing; re-invoke it after any field mutation.
func (t *Table) Check(rec bib.Record) Completeness {
	fs := t.Lookup(rec.Type)
	return Completeness{
		Required:    missingFields(rec, fs.Required),
		Recommended: missingFields(rec, fs.Recommended),
	}
}

// Check evaluates a record against the built-in schema table.
func Check(rec bib.Record) Completeness {
	return NewTable().Check(rec)
}

func missingFields(rec bib.Record, names []string) []string {
	var missing []string
	for _, name := range names {
		if name == bib.FieldCreators {
			if rec.ValidCreators() == 0 {
				missing = append(missing, name)
			}
			continue
		}
		if !rec.HasField(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
