// Package bib defines the bibliographic record model shared by the
// reconciliation core: records, creators, the known field vocabulary, and
// the boundary interfaces to the record source and commit sink.
package bib

import "strings"

// Creator types recognized by the record source.
const (
	CreatorAuthor      = "author"
	CreatorEditor      = "editor"
	CreatorTranslator  = "translator"
	CreatorContributor = "contributor"
)

// Creator is one entry in a record's ordered creators list. A creator
// carries either a split name (FirstName, LastName) or a single Name.
type Creator struct {
	CreatorType string `json:"creatorType" yaml:"creatorType"`
	FirstName   string `json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty" yaml:"lastName,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Valid reports whether the creator has a type and at least one name
// component after trimming.
func (c Creator) Valid() bool {
	if strings.TrimSpace(c.CreatorType) == "" {
		return false
	}
	return strings.TrimSpace(c.FirstName) != "" ||
		strings.TrimSpace(c.LastName) != "" ||
		strings.TrimSpace(c.Name) != ""
}

// Display returns the creator's name for display and serialization.
func (c Creator) Display() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	first := strings.TrimSpace(c.FirstName)
	last := strings.TrimSpace(c.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case last != "":
		return last
	default:
		return first
	}
}

// Surname returns the component used for author-overlap comparison:
// the last name when split, otherwise the single name.
func (c Creator) Surname() string {
	if last := strings.TrimSpace(c.LastName); last != "" {
		return last
	}
	return strings.TrimSpace(c.Name)
}

// Record is a bibliographic record as fetched from the record source.
// The core treats records as read-only: operations that change a record
// propose a new field map rather than mutating in place.
type Record struct {
	Key       string            `json:"key" yaml:"key"`             // Stable key, unique within a snapshot
	Version   int64             `json:"version" yaml:"version"`     // Monotonically increasing source version
	Type      string            `json:"itemType" yaml:"itemType"`   // Record type (journalArticle, book, ...)
	Fields    map[string]string `json:"fields" yaml:"fields"`       // String-keyed field values
	Creators  []Creator         `json:"creators" yaml:"creators"`   // Ordered creators list
	Tags      []string          `json:"tags" yaml:"tags"`           // Tag set
	DateAdded string            `json:"dateAdded" yaml:"dateAdded"` // Source-provided timestamp, display ordering only
}

// Field returns the trimmed value of a field, or "" when the field is
// absent or empty.
func (r Record) Field(name string) string {
	return strings.TrimSpace(r.Fields[name])
}

// HasField reports whether the record holds a non-empty value for name.
func (r Record) HasField(name string) bool {
	return r.Field(name) != ""
}

// ValidCreators returns the count of structurally valid creator entries.
func (r Record) ValidCreators() int {
	n := 0
	for _, c := range r.Creators {
		if c.Valid() {
			n++
		}
	}
	return n
}

// CreatorsDisplay serializes the creators list to a single display string.
// The enrichment reconciler matches its placeholder heuristic against this.
func (r Record) CreatorsDisplay() string {
	parts := make([]string, 0, len(r.Creators))
	for _, c := range r.Creators {
		if name := c.Display(); name != "" {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ", ")
}

// Title returns the record's title field.
func (r Record) Title() string {
	return r.Field(FieldTitle)
}

// DOI returns the record's DOI field.
func (r Record) DOI() string {
	return r.Field(FieldDOI)
}

// ISBN returns the record's ISBN field.
func (r Record) ISBN() string {
	return r.Field(FieldISBN)
}
