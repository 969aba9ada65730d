package merge

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refmend/refmend/pkg/bib"
	"github.com/refmend/refmend/pkg/dedupe"
)

func groupOf(records ...bib.Record) dedupe.Group {
	return dedupe.Group{Records: records}
}

func TestBuildDraftSingleValuesWinWithoutConflict(t *testing.T) {
	// B's title differs only by case, so no field ends up with two
	// distinct non-empty values and the merge is conflict-free.
	a := bib.Record{Key: "A", Fields: map[string]string{
		bib.FieldTitle: "Deep Learning",
		bib.FieldDOI:   "10.1/x",
		bib.FieldPages: "",
	}}
	b := bib.Record{Key: "B", Fields: map[string]string{
		bib.FieldTitle: "Deep learning",
		bib.FieldDOI:   "",
		bib.FieldPages: "1-10",
	}}

	draft, err := BuildDraft(groupOf(a, b), 0, nil)
	require.NoError(t, err)

	assert.Equal(t, "A", draft.MasterKey)
	assert.Equal(t, "Deep Learning", draft.Fields[bib.FieldTitle])
	assert.Equal(t, "10.1/x", draft.Fields[bib.FieldDOI])
	assert.Equal(t, "1-10", draft.Fields[bib.FieldPages])
	assert.Empty(t, draft.Conflicts)

	// Fields nobody holds stay absent from the draft.
	_, present := draft.Fields[bib.FieldPublisher]
	assert.False(t, present)
}

func TestBuildDraftCaseVariantsAreOneValue(t *testing.T) {
	a := bib.Record{Key: "A", Fields: map[string]string{bib.FieldTitle: "deep learning"}}
	b := bib.Record{Key: "B", Fields: map[string]string{bib.FieldTitle: "Deep Learning"}}

	// Master B's spelling represents the shared value.
	draft, err := BuildDraft(groupOf(a, b), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "Deep Learning", draft.Fields[bib.FieldTitle])
	assert.Empty(t, draft.Conflicts)
}

func TestBuildDraftMasterWinsConflicts(t *testing.T) {
	a := bib.Record{Key: "A", Fields: map[string]string{bib.FieldPublisher: "MIT Press"}}
	b := bib.Record{Key: "B", Fields: map[string]string{bib.FieldPublisher: "The MIT Press, Cambridge"}}

	draft, err := BuildDraft(groupOf(a, b), 0, nil)
	require.NoError(t, err)

	// Master's own value beats a longer competitor.
	assert.Equal(t, "MIT Press", draft.Fields[bib.FieldPublisher])
	require.Len(t, draft.Conflicts, 1)
	assert.Equal(t, bib.FieldPublisher, draft.Conflicts[0].Field)
	assert.Equal(t, []ConflictValue{
		{Value: "MIT Press", RecordKey: "A"},
		{Value: "The MIT Press, Cambridge", RecordKey: "B"},
	}, draft.Conflicts[0].Values)
}

func TestBuildDraftLongestWinsWhenMasterEmpty(t *testing.T) {
	a := bib.Record{Key: "A", Fields: map[string]string{}}
	b := bib.Record{Key: "B", Fields: map[string]string{bib.FieldAbstractNote: "short"}}
	c := bib.Record{Key: "C", Fields: map[string]string{bib.FieldAbstractNote: "a much longer abstract"}}

	draft, err := BuildDraft(groupOf(a, b, c), 0, nil)
	require.NoError(t, err)

	assert.Equal(t, "a much longer abstract", draft.Fields[bib.FieldAbstractNote])
	require.Len(t, draft.Conflicts, 1)
}

func TestBuildDraftTieBrokenByGroupOrder(t *testing.T) {
	a := bib.Record{Key: "A", Fields: map[string]string{}}
	b := bib.Record{Key: "B", Fields: map[string]string{bib.FieldVolume: "12"}}
	c := bib.Record{Key: "C", Fields: map[string]string{bib.FieldVolume: "34"}}

	draft, err := BuildDraft(groupOf(a, b, c), 0, nil)
	require.NoError(t, err)

	// Equal lengths: the earlier member's value wins.
	assert.Equal(t, "12", draft.Fields[bib.FieldVolume])
}

func TestBuildDraftOverrides(t *testing.T) {
	a := bib.Record{Key: "A", Fields: map[string]string{bib.FieldPublisher: "MIT Press"}}
	b := bib.Record{Key: "B", Fields: map[string]string{bib.FieldPublisher: "Springer"}}

	draft, err := BuildDraft(groupOf(a, b), 0, map[string]string{
		bib.FieldPublisher: "Springer",
		bib.FieldURL:       "https://example.org/book",
	})
	require.NoError(t, err)

	// Override replaces the default winner and suppresses the conflict.
	assert.Equal(t, "Springer", draft.Fields[bib.FieldPublisher])
	assert.Empty(t, draft.Conflicts)

	// Overrides may introduce fields no member holds.
	assert.Equal(t, "https://example.org/book", draft.Fields[bib.FieldURL])
}

func TestBuildDraftCreators(t *testing.T) {
	one := []bib.Creator{{CreatorType: bib.CreatorAuthor, LastName: "Hinton"}}
	two := []bib.Creator{
		{CreatorType: bib.CreatorAuthor, LastName: "Hinton", FirstName: "Geoffrey"},
		{CreatorType: bib.CreatorAuthor, LastName: "Salakhutdinov"},
	}

	a := bib.Record{Key: "A", Fields: map[string]string{}, Creators: one}
	b := bib.Record{Key: "B", Fields: map[string]string{}, Creators: two}

	// Master is A, but B has more valid creators: B's array is taken
	// verbatim and the disagreement is conflict-eligible.
	draft, err := BuildDraft(groupOf(a, b), 0, nil)
	require.NoError(t, err)

	assert.Equal(t, two, draft.Creators)
	require.Len(t, draft.Conflicts, 1)
	assert.Equal(t, bib.FieldCreators, draft.Conflicts[0].Field)
	require.Len(t, draft.Conflicts[0].Values, 2)
	assert.Equal(t, "Hinton", draft.Conflicts[0].Values[0].Value)
	assert.Equal(t, "A", draft.Conflicts[0].Values[0].RecordKey)
}

func TestBuildDraftCreatorsAgreementIsNoConflict(t *testing.T) {
	creators := []bib.Creator{{CreatorType: bib.CreatorAuthor, LastName: "Hinton"}}
	a := bib.Record{Key: "A", Fields: map[string]string{}, Creators: creators}
	b := bib.Record{Key: "B", Fields: map[string]string{}, Creators: creators}

	draft, err := BuildDraft(groupOf(a, b), 1, nil)
	require.NoError(t, err)

	assert.Equal(t, creators, draft.Creators)
	assert.Empty(t, draft.Conflicts)
}

func TestBuildDraftValidation(t *testing.T) {
	a := bib.Record{Key: "A", Fields: map[string]string{}}
	b := bib.Record{Key: "B", Fields: map[string]string{}}

	_, err := BuildDraft(groupOf(a), 0, nil)
	assert.Error(t, err)

	_, err = BuildDraft(groupOf(a, b), 2, nil)
	assert.Error(t, err)

	_, err = BuildDraft(groupOf(a, b), -1, nil)
	assert.Error(t, err)
}

func TestBuildDraftDeterministic(t *testing.T) {
	a := bib.Record{Key: "A", Fields: map[string]string{
		bib.FieldTitle:     "Title One",
		bib.FieldPublisher: "MIT Press",
	}, Tags: []string{"ml", "neural nets"}}
	b := bib.Record{Key: "B", Fields: map[string]string{
		bib.FieldTitle:     "Title Two",
		bib.FieldPublisher: "Springer",
	}, Tags: []string{"Neural Nets", "vision"}}

	first, err := BuildDraft(groupOf(a, b), 1, map[string]string{bib.FieldTitle: "Chosen"})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := BuildDraft(groupOf(a, b), 1, map[string]string{bib.FieldTitle: "Chosen"})
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("draft not deterministic (-want +got):\n%s", diff)
		}
	}
}

func TestUnionTags(t *testing.T) {
	a := bib.Record{Tags: []string{"machine learning", "AI", ""}}
	b := bib.Record{Tags: []string{"Machine Learning", "machine learnin", "robotics"}}

	got := UnionTags([]bib.Record{a, b})

	// First-seen spelling wins for case and near variants.
	assert.Equal(t, []string{"machine learning", "AI", "robotics"}, got)
}

func TestUnionTagsKeepsDistinctShortTags(t *testing.T) {
	// Short tags have no bigrams in common and must not be folded.
	a := bib.Record{Tags: []string{"ml"}}
	b := bib.Record{Tags: []string{"nlp"}}

	assert.Equal(t, []string{"ml", "nlp"}, UnionTags([]bib.Record{a, b}))
}
