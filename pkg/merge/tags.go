package merge

import (
	"strings"

	"github.com/refmend/refmend/pkg/bib"
	"github.com/refmend/refmend/pkg/similarity"
)

// UnionTags merges the members' tag sets into one list, folding
// near-duplicate spellings: a tag scoring at or above the tag threshold
// against an already-kept tag is treated as the same tag, and the
// first-seen spelling wins. Order follows group order, then each member's
// own tag order.
func UnionTags(records []bib.Record) []string {
	var out []string
	for _, rec := range records {
		for _, tag := range rec.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if !containsVariant(out, tag) {
				out = append(out, tag)
			}
		}
	}
	return out
}

func containsVariant(kept []string, tag string) bool {
	for _, existing := range kept {
		if strings.EqualFold(existing, tag) {
			return true
		}
		if similarity.Score(existing, tag) >= similarity.TagThreshold {
			return true
		}
	}
	return false
}
