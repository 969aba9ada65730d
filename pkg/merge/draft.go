// Package merge builds conflict-aware merge drafts for duplicate groups
// and commits them to the record store. The resolver is pure and
// deterministic; commit is a separate, explicit operation.
package merge

import (
	"strings"

	"github.com/refmend/refmend/pkg/bib"
	"github.com/refmend/refmend/pkg/dedupe"
	"github.com/refmend/refmend/pkg/errors"
)

// ConflictValue is one disagreeing value with its source record.
type ConflictValue struct {
	Value     string `json:"value"`
	RecordKey string `json:"recordKey"`
}

// Conflict records a field where group members hold distinct non-empty
// values and no override was supplied. A conflict is not fatal: the draft
// already contains the default winner.
type Conflict struct {
	Field  string          `json:"field"`
	Values []ConflictValue `json:"values"`
}

// Draft is the proposed merged state for a group's master. It exists only
// between group selection and commit or cancel; nothing here persists.
type Draft struct {
	MasterKey string            `json:"masterKey"`
	Fields    map[string]string `json:"fields"`
	Creators  []bib.Creator     `json:"creators"`
	Tags      []string          `json:"tags"`
	Conflicts []Conflict        `json:"conflicts"`
}

// BuildDraft resolves a duplicate group against the chosen master. For
// each field in the vocabulary it collects the members' distinct non-empty
// values: a single value wins outright; among several, the master's own
// value wins when non-empty, otherwise the longest value (ties broken by
// group order), and the field is recorded as a conflict. Overrides replace
// the default winner for named fields and suppress their conflict entries.
//
// Identical inputs always yield an identical draft and conflict list.
func BuildDraft(group dedupe.Group, masterIndex int, overrides map[string]string) (Draft, error) {
	if group.Len() < 2 {
		return Draft{}, &errors.ValidationError{Field: "group", Message: "needs at least two records"}
	}
	if masterIndex < 0 || masterIndex >= group.Len() {
		return Draft{}, &errors.ValidationError{Field: "masterIndex", Message: "out of range"}
	}

	master := group.Records[masterIndex]
	draft := Draft{
		MasterKey: master.Key,
		Fields:    make(map[string]string),
	}

	for _, field := range bib.FieldVocabulary {
		if field == bib.FieldCreators {
			resolveCreators(&draft, group)
			continue
		}

		values := collectValues(group, master, field)
		if len(values) == 0 {
			if value, ok := overrides[field]; ok {
				draft.Fields[field] = value
			}
			continue
		}

		if value, ok := overrides[field]; ok {
			draft.Fields[field] = value
			continue
		}

		if len(values) == 1 {
			draft.Fields[field] = values[0].Value
			continue
		}

		draft.Fields[field] = defaultWinner(master, field, values)
		draft.Conflicts = append(draft.Conflicts, Conflict{Field: field, Values: values})
	}

	draft.Tags = UnionTags(group.Records)
	return draft, nil
}

// collectValues gathers the distinct non-empty values for a field in group
// order. Distinctness is case-insensitive: spellings that differ only by
// case are one value, represented by the master's spelling when the master
// holds one, otherwise by the first member's.
func collectValues(group dedupe.Group, master bib.Record, field string) []ConflictValue {
	masterValue := master.Field(field)

	var values []ConflictValue
	seen := make(map[string]struct{})
	for _, rec := range group.Records {
		value := rec.Field(field)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if masterValue != "" && strings.EqualFold(value, masterValue) {
			value = masterValue
			values = append(values, ConflictValue{Value: value, RecordKey: master.Key})
			continue
		}
		values = append(values, ConflictValue{Value: value, RecordKey: rec.Key})
	}
	return values
}

// defaultWinner picks among several distinct values: the master's own
// value when non-empty, otherwise the longest (ties broken by group order,
// i.e. first seen wins).
func defaultWinner(master bib.Record, field string, values []ConflictValue) string {
	if own := master.Field(field); own != "" {
		return own
	}
	longest := values[0].Value
	for _, v := range values[1:] {
		if len(v.Value) > len(longest) {
			longest = v.Value
		}
	}
	return longest
}

// resolveCreators takes the creators array verbatim from the member with
// the most structurally valid entries (ties broken by group order). The
// field is conflict-eligible when members with creators disagree on the
// array; conflict values carry the serialized lists for display.
func resolveCreators(draft *Draft, group dedupe.Group) {
	bestIdx := -1
	bestCount := 0
	for i, rec := range group.Records {
		if count := rec.ValidCreators(); count > bestCount {
			bestCount = count
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return
	}
	draft.Creators = append([]bib.Creator(nil), group.Records[bestIdx].Creators...)

	var values []ConflictValue
	seen := make(map[string]struct{})
	for _, rec := range group.Records {
		if len(rec.Creators) == 0 {
			continue
		}
		serialized := rec.CreatorsDisplay()
		if _, dup := seen[serialized]; dup {
			continue
		}
		seen[serialized] = struct{}{}
		values = append(values, ConflictValue{Value: serialized, RecordKey: rec.Key})
	}
	if len(values) > 1 {
		draft.Conflicts = append(draft.Conflicts, Conflict{Field: bib.FieldCreators, Values: values})
	}
}
