package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarityWordOverlap(t *testing.T) {
	// "urgent" and "delivery" overlap; both messages have 3 words.
	got := Similarity("urgent delivery needed", "urgent delivery update", "", "")
	assert.InDelta(t, (2.0/3.0)*0.7, got, 1e-9)
}

func TestSimilarityTypeBonus(t *testing.T) {
	withBonus := Similarity("urgent delivery needed", "urgent delivery update", "delivery", "delivery")
	without := Similarity("urgent delivery needed", "urgent delivery update", "delivery", "follow_up")
	assert.InDelta(t, 0.3, withBonus-without, 1e-9)

	// No declared message type means no bonus even when the stored type is set.
	unset := Similarity("urgent delivery needed", "urgent delivery update", "", "delivery")
	assert.InDelta(t, without, unset, 1e-9)
}

// Full overlap with matching type reaches exactly 0.3 + 0.7 = 1.0; retrieval
// does not clamp, and this exact case must not exceed 1.0.
func TestSimilarityExactCaseHitsOne(t *testing.T) {
	got := Similarity("urgent delivery needed", "Urgent delivery needed", "delivery", "delivery")
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestSimilarityUsesLongerSideAsDenominator(t *testing.T) {
	// 2 overlapping words, wordcounts 2 and 5 → 2/5.
	got := Similarity("urgent delivery", "urgent delivery for your order", "", "")
	assert.InDelta(t, (2.0/5.0)*0.7, got, 1e-9)
}

func TestSimilarityWholeWordsOnly(t *testing.T) {
	// "deliver" is not the whole word "delivery".
	got := Similarity("deliver", "delivery", "", "")
	assert.Zero(t, got)
}

func TestSimilarityEmptySidesAreSafe(t *testing.T) {
	assert.Zero(t, Similarity("", "", "", ""))
	assert.Zero(t, Similarity("hello", "", "", ""))
	assert.Zero(t, Similarity("", "hello", "", ""))
	// Type bonus still applies with empty text; no NaN from the zero
	// wordcount denominator.
	got := Similarity("", "", "delivery", "delivery")
	assert.InDelta(t, 0.3, got, 1e-9)
}

func TestFindSimilarOrdersAndLimits(t *testing.T) {
	now := time.Now()
	candidates := []Candidate{
		{ID: "c1", OriginalMessage: "totally different topic entirely", MessageType: "follow_up", CreatedAt: now},
		{ID: "c2", OriginalMessage: "urgent delivery update", MessageType: "delivery", CreatedAt: now},
		{ID: "c3", OriginalMessage: "urgent delivery needed", MessageType: "delivery", CreatedAt: now},
	}

	got := FindSimilar(candidates, "urgent delivery needed", "delivery", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "c3", got[0].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, "c2", got[1].ID)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestFindSimilarTieBreaksMostRecentFirst(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	candidates := []Candidate{
		{ID: "old", OriginalMessage: "urgent delivery", CreatedAt: older},
		{ID: "new", OriginalMessage: "urgent delivery", CreatedAt: newer},
	}

	got := FindSimilar(candidates, "urgent delivery", "", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "old", got[1].ID)
}

func TestFindSimilarEmptyAndDegenerateInputs(t *testing.T) {
	assert.Empty(t, FindSimilar(nil, "msg", "", 5))
	assert.Empty(t, FindSimilar([]Candidate{{ID: "x"}}, "msg", "", 0))

	// Limit above the candidate count returns everything.
	got := FindSimilar([]Candidate{{ID: "only", OriginalMessage: "msg"}}, "msg", "", 10)
	assert.Len(t, got, 1)
}

func TestFindSimilarCarriesRefinedResponse(t *testing.T) {
	candidates := []Candidate{{
		ID:              "c1",
		OriginalMessage: "can you fix the header",
		RefinedResponse: "Of course — I'll adjust the header today.",
	}}
	got := FindSimilar(candidates, "fix the header", "", 1)
	require.Len(t, got, 1)
	assert.Equal(t, "Of course — I'll adjust the header today.", got[0].RefinedResponse)
}
