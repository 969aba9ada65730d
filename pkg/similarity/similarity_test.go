package similarity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreIdentity(t *testing.T) {
	for _, s := range []string{"ab", "night", "Deep Learning", "übermäßig"} {
		assert.Equal(t, 1.0, Score(s, s), s)
	}
}

func TestScoreShortStrings(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"", ""},
		{"a", "a"},
		{"a", "night"},
		{"night", "x"},
		{" a ", "ab"}, // trims to a single rune
	}

	for _, tt := range tests {
		assert.Equal(t, 0.0, Score(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestScoreSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"night", "nacht"},
		{"Deep Learning", "Deep learning methods"},
		{"Smith", "Smyth"},
		{"context", "contact"},
	}

	for _, p := range pairs {
		assert.Equal(t, Score(p[0], p[1]), Score(p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestScoreCaseFolding(t *testing.T) {
	assert.Equal(t, 1.0, Score("Deep Learning", "DEEP LEARNING"))
	assert.Equal(t, 1.0, Score("straße", "STRASSE")) // full Unicode case folding
}

func TestScoreKnownValues(t *testing.T) {
	// Classic Dice example: NIGHT vs NACHT share one bigram (HT) of 4+4.
	assert.InDelta(t, 0.25, Score("night", "NACHT"), 1e-9)

	// Disjoint bigram sets.
	assert.Equal(t, 0.0, Score("abcd", "wxyz"))

	// Repeated bigrams must not be double counted.
	// "aaaa" has bigrams {aa,aa,aa}; "aa" has {aa}: 2*1/(3+1) = 0.5.
	assert.InDelta(t, 0.5, Score("aaaa", "aa"), 1e-9)
}

func TestScoreConcurrent(t *testing.T) {
	// Scoring from many goroutines must stay correct; run with -race.
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if got := Score("Deep Learning", "DEEP LEARNING"); got != 1.0 {
					t.Errorf("concurrent Score = %v, want 1", got)
				}
				if got := Score("night", "NACHT"); got != 0.25 {
					t.Errorf("concurrent Score = %v, want 0.25", got)
				}
			}
		}()
	}
	wg.Wait()
}

func TestScoreRange(t *testing.T) {
	pairs := [][2]string{
		{"Deep Learning", "Deep learning"},
		{"Attention is all you need", "Attention is what you need"},
		{"aaab", "aaac"},
	}

	for _, p := range pairs {
		got := Score(p[0], p[1])
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}
