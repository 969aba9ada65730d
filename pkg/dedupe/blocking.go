package dedupe

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/refmend/refmend/pkg/bib"
)

// Below this many records a full pairwise scan is cheap enough that
// blocking would only risk missed pairs.
const blockingThreshold = 200

// titlePrefixLen is the normalized-title prefix length used for blocking.
const titlePrefixLen = 5

// candidatePairs returns the index pairs the comparator should examine.
// Small snapshots get the full O(n²) scan; larger ones are pre-filtered by
// a blocking index keyed on identifiers and normalized-title prefixes, so
// only records sharing a block are compared.
func candidatePairs(records []bib.Record) [][2]int {
	if len(records) <= blockingThreshold {
		pairs := make([][2]int, 0, len(records)*(len(records)-1)/2)
		for i := 0; i < len(records); i++ {
			for j := i + 1; j < len(records); j++ {
				pairs = append(pairs, [2]int{i, j})
			}
		}
		return pairs
	}

	// Records with an empty identifier or title must not share a bucket,
	// or the index degenerates into one block holding everything.
	blocks := make(map[string][]int)
	add := func(key string, idx int) {
		blocks[key] = append(blocks[key], idx)
	}

	for i, rec := range records {
		if doi := normalizeDOI(rec.DOI()); doi != "" {
			add("doi:"+doi, i)
		}
		if isbn := normalizeISBN(rec.ISBN()); isbn != "" {
			add("isbn:"+isbn, i)
		}
		if title := normalizeTitle(rec.Title()); title != "" {
			prefix := title
			if len(prefix) > titlePrefixLen {
				prefix = prefix[:titlePrefixLen]
			}
			add("title:"+prefix, i)
		}
	}

	seen := make(map[[2]int]struct{})
	var pairs [][2]int
	for _, block := range blocks {
		for i := 0; i < len(block); i++ {
			for j := i + 1; j < len(block); j++ {
				pair := [2]int{block[i], block[j]}
				if pair[0] > pair[1] {
					pair[0], pair[1] = pair[1], pair[0]
				}
				if _, dup := seen[pair]; dup {
					continue
				}
				seen[pair] = struct{}{}
				pairs = append(pairs, pair)
			}
		}
	}
	return pairs
}

// normalizeDOI canonicalizes a DOI for exact comparison. DOI names are
// case-insensitive; a resolver URL prefix is stripped.
func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(strings.ToLower(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		if strings.HasPrefix(doi, prefix) {
			doi = doi[len(prefix):]
			break
		}
	}
	return doi
}

// normalizeISBN strips separators so hyphenated and plain forms compare
// equal.
func normalizeISBN(isbn string) string {
	var b strings.Builder
	for _, r := range isbn {
		if unicode.IsDigit(r) || r == 'x' || r == 'X' {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// normalizeTitle lowercases, case-folds, and drops everything but letters
// and digits, giving a stable blocking key for title variants. The Caser
// is per call; x/text documents Caser as possibly stateful.
func normalizeTitle(title string) string {
	title = cases.Fold().String(norm.NFKC.String(title))
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
