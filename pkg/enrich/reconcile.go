package enrich

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/refmend/refmend/pkg/bib"
)

// placeholderAuthor recognizes synthetic creator data: a serialized
// creators list containing "Last" followed by a digit. Known to be narrow;
// kept as a named heuristic pending product-level review.
var placeholderAuthor = regexp.MustCompile(`(?i)last\d`)

var nullLike = map[string]struct{}{
	"":        {},
	"unknown": {},
	"null":    {},
	"n/a":     {},
	"none":    {},
}

// Reconcile filters a candidate against a record and returns the accepted
// changes. Per candidate key it rejects, in order: unknown field names,
// null-like values, and no-op values identical to the record's current
// value. The creators field additionally requires a structurally valid
// list, and is only taken when the current creators look synthetic or the
// candidate's shape differs.
//
// Reconcile never fails on malformed input; offending keys are silently
// dropped and an empty map is the valid "nothing to apply" result.
func Reconcile(rec bib.Record, cand Candidate) map[string]any {
	accepted := make(map[string]any)

	for key, raw := range cand.Fields {
		if !bib.KnownField(key) {
			continue
		}

		if key == bib.FieldCreators {
			if creators, ok := reconcileCreators(rec, raw); ok {
				accepted[key] = creators
			}
			continue
		}

		value, ok := coerceString(raw)
		if !ok {
			continue
		}
		if isNullLike(value) {
			continue
		}
		if value == rec.Field(key) {
			continue
		}
		accepted[key] = value
	}

	return accepted
}

// reconcileCreators applies the creators-specific rules: the candidate
// list must be non-empty with every entry carrying a creatorType and at
// least one name component; an exact copy of the current list is a no-op;
// and beyond that the list is used only when the current creators look
// like placeholders or the candidate's structure differs.
func reconcileCreators(rec bib.Record, raw any) ([]bib.Creator, bool) {
	creators, ok := parseCreators(raw)
	if !ok || len(creators) == 0 {
		return nil, false
	}

	if creatorsEqual(rec.Creators, creators) {
		return nil, false
	}

	if placeholderAuthor.MatchString(rec.CreatorsDisplay()) {
		return creators, true
	}
	if !sameCreatorShape(rec.Creators, creators) {
		return creators, true
	}
	return nil, false
}

// parseCreators converts a dynamically shaped creators value into a typed
// list. Any entry that is not an object, carries non-string components, or
// fails structural validity invalidates the whole list.
func parseCreators(raw any) ([]bib.Creator, bool) {
	entries, ok := raw.([]any)
	if !ok {
		return nil, false
	}

	creators := make([]bib.Creator, 0, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, false
		}
		creator := bib.Creator{}
		if creator.CreatorType, ok = optionalString(obj, "creatorType"); !ok {
			return nil, false
		}
		if creator.FirstName, ok = optionalString(obj, "firstName"); !ok {
			return nil, false
		}
		if creator.LastName, ok = optionalString(obj, "lastName"); !ok {
			return nil, false
		}
		if creator.Name, ok = optionalString(obj, "name"); !ok {
			return nil, false
		}
		if !creator.Valid() {
			return nil, false
		}
		creators = append(creators, creator)
	}
	return creators, true
}

// optionalString reads a string key from an untrusted object: absent keys
// are fine, non-string values are not.
func optionalString(obj map[string]any, key string) (string, bool) {
	raw, exists := obj[key]
	if !exists || raw == nil {
		return "", true
	}
	s, ok := raw.(string)
	return s, ok
}

// creatorsEqual is deep equality over creator values.
func creatorsEqual(a, b []bib.Creator) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sameCreatorShape compares list structure only: length, per-entry creator
// type, and which name components are present. Two lists of the same shape
// with different name values are treated as the enrichment source merely
// disagreeing, which is not enough to overwrite current data.
func sameCreatorShape(a, b []bib.Creator) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].CreatorType != b[i].CreatorType {
			return false
		}
		if (a[i].FirstName != "") != (b[i].FirstName != "") ||
			(a[i].LastName != "") != (b[i].LastName != "") ||
			(a[i].Name != "") != (b[i].Name != "") {
			return false
		}
	}
	return true
}

// coerceString converts a scalar candidate value to its trimmed string
// form. Objects, lists, and nulls do not coerce.
func coerceString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

func isNullLike(value string) bool {
	_, ok := nullLike[strings.ToLower(strings.TrimSpace(value))]
	return ok
}
