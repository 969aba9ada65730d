// Package similarity implements the string similarity primitive used for
// duplicate detection: a Dice coefficient over character bigrams.
package similarity

import (
	"strings"

	"golang.org/x/text/cases"
)

// Acceptance thresholds by use. A false title merge is costlier than a
// missed one, so the title threshold is stricter than the name and tag
// thresholds.
const (
	// TitleThreshold is the minimum title score for a fuzzy duplicate match.
	TitleThreshold = 0.85
	// NameThreshold is the minimum score for two creator names to count as
	// the same person when computing author overlap.
	NameThreshold = 0.70
	// TagThreshold is the minimum score for two tags to be folded into one
	// spelling when merging tag sets.
	TagThreshold = 0.90
)

// Score returns the bigram similarity of a and b in [0,1]. Comparison is
// case-insensitive (Unicode case folding). Strings shorter than two runes
// have no bigram and always score 0; equal strings score 1.
//
// Score is pure and symmetric: Score(a, b) == Score(b, a), and safe for
// concurrent use. The Caser is constructed per call: x/text documents
// Caser as possibly stateful.
func Score(a, b string) float64 {
	fold := cases.Fold()
	a = fold.String(strings.TrimSpace(a))
	b = fold.String(strings.TrimSpace(b))

	ra := []rune(a)
	rb := []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}
	if a == b {
		return 1
	}

	bigrams := make(map[[2]rune]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		bigrams[[2]rune{ra[i], ra[i+1]}]++
	}

	shared := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := [2]rune{rb[i], rb[i+1]}
		if bigrams[bg] > 0 {
			bigrams[bg]--
			shared++
		}
	}

	return 2 * float64(shared) / float64(len(ra)-1+len(rb)-1)
}
