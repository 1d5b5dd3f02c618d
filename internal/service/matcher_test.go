package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/factline/internal/domain"
)

func TestWordOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"shared subject", "Earthquake strikes Chile", "Chile earthquake kills 5", true},
		{"nothing shared", "Markets rally on jobs data", "Storm hits Texas coast", false},
		{"punctuation ignored", "Storm hits Texas.", "Texas, storm warning", true},
		{"short words ignored", "It is in a box", "It is on a box", true},
		{"only short words", "a is to", "a is to", false},
		{"empty", "", "Storm hits Texas", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WordOverlap(tt.a, tt.b, LexicalOverlap); got != tt.want {
				t.Errorf("WordOverlap(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRawOverlapRatio(t *testing.T) {
	assert.InDelta(t, 0.5, RawOverlapRatio("a b c d", "A b x y"), 1e-9)
	assert.InDelta(t, 1.0, RawOverlapRatio("fire spreads", "Fire spreads east of town"), 1e-9)
	assert.Zero(t, RawOverlapRatio("", "text"))
}

func TestMatcher_IsDuplicate_HashFastPath(t *testing.T) {
	h := newHarness(t)
	today := []domain.PublishedStory{{ID: "s1", Fact: "Bridge collapses in Genoa.", Hash: "other"}}

	dup := h.matcher.IsDuplicate(context.Background(), "bridge collapses   in genoa.", today)

	assert.True(t, dup)
	assert.Empty(t, h.oracle.IsSameEventCalls, "hash match must not call the oracle")
}

func TestMatcher_IsDuplicate_AsksOracleAboutCandidates(t *testing.T) {
	h := newHarness(t)
	h.oracle.IsSameEventResponse = true
	today := []domain.PublishedStory{
		{ID: "s1", Fact: "Central bank raises interest rates by half a point."},
		{ID: "s2", Fact: "Wildfire forces evacuations in Oregon."},
	}

	dup := h.matcher.IsDuplicate(context.Background(), "Central bank lifts rates half point", today)

	assert.True(t, dup)
	require.Len(t, h.oracle.IsSameEventCalls, 1)
	assert.Equal(t, []string{today[0].Fact}, h.oracle.IsSameEventCalls[0].Published)
}

func TestMatcher_IsDuplicate_NoCandidatesNoCall(t *testing.T) {
	h := newHarness(t)
	today := []domain.PublishedStory{{ID: "s1", Fact: "Wildfire forces evacuations in Oregon."}}

	assert.False(t, h.matcher.IsDuplicate(context.Background(), "Parliament passes budget bill", today))
	assert.Empty(t, h.oracle.IsSameEventCalls)
}

func TestMatcher_IsDuplicate_OracleErrorIsNotDuplicate(t *testing.T) {
	h := newHarness(t)
	h.oracle.IsSameEventResponse = true
	h.oracle.IsSameEventError = errors.New("rate limited")
	today := []domain.PublishedStory{{ID: "s1", Fact: "Wildfire forces evacuations in Oregon."}}

	assert.False(t, h.matcher.IsDuplicate(context.Background(), "Oregon wildfire evacuations", today))
}

func TestMatcher_IsDuplicate_Idempotent(t *testing.T) {
	h := newHarness(t)
	h.oracle.IsSameEventResponse = true
	today := []domain.PublishedStory{{ID: "s1", Fact: "Wildfire forces evacuations in Oregon."}}
	ctx := context.Background()

	first := h.matcher.IsDuplicate(ctx, "Oregon wildfire evacuations ordered", today)
	second := h.matcher.IsDuplicate(ctx, "Oregon wildfire evacuations ordered", today)
	assert.Equal(t, first, second)
}

func TestMatcher_FindMatches(t *testing.T) {
	h := newHarness(t)
	queue := []domain.QueueEntry{
		{Fact: "Flooding closes schools in Jakarta.", SourceID: "beta"},
		{Fact: "Senate confirms new defense secretary.", SourceID: "gamma"},
		{Fact: "Jakarta floods displace thousands.", SourceID: "delta"},
	}
	h.oracle.SameEventFunc = func(_ string, candidates []string) []int {
		return []int{1}
	}

	matches := h.matcher.FindMatches(context.Background(), "Floods in Jakarta displace thousands of residents", queue)

	require.Len(t, h.oracle.SameEventCalls, 1)
	assert.Equal(t, []string{queue[0].Fact, queue[2].Fact}, h.oracle.SameEventCalls[0].Candidates,
		"only lexical candidates reach the oracle")
	require.Len(t, matches, 1)
	assert.Equal(t, "delta", matches[0].SourceID)
}

func TestMatcher_FindMatches_OracleError(t *testing.T) {
	h := newHarness(t)
	h.oracle.SameEventError = errors.New("timeout")
	queue := []domain.QueueEntry{{Fact: "Jakarta floods displace thousands.", SourceID: "delta"}}

	assert.Empty(t, h.matcher.FindMatches(context.Background(), "Jakarta floods", queue))
}

func TestMatcher_PickWording(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	aFact := "Magnitude 6 earthquake strikes coast of Chile."
	bFact := "Powerful earthquake hits Chilean coast."

	t.Run("more reliable incoming wins", func(t *testing.T) {
		got := h.matcher.PickWording(ctx, Candidate{Fact: aFact, SourceID: "alpha", Confidence: 90},
			domain.QueueEntry{Fact: bFact, SourceID: "beta", Confidence: 95})
		assert.Equal(t, aFact, got)
	})

	t.Run("more reliable queued wins", func(t *testing.T) {
		got := h.matcher.PickWording(ctx, Candidate{Fact: bFact, SourceID: "beta", Confidence: 95},
			domain.QueueEntry{Fact: aFact, SourceID: "alpha", Confidence: 90})
		assert.Equal(t, aFact, got)
	})

	t.Run("tie goes to incoming", func(t *testing.T) {
		got := h.matcher.PickWording(ctx, Candidate{Fact: "incoming", SourceID: "beta", Confidence: 90},
			domain.QueueEntry{Fact: "queued", SourceID: "delta", Confidence: 90})
		assert.Equal(t, "incoming", got)
	})

	t.Run("legacy entry assumes 85", func(t *testing.T) {
		queued := domain.QueueEntry{Fact: "queued", SourceID: "delta"}
		assert.Equal(t, "incoming", h.matcher.PickWording(ctx, Candidate{Fact: "incoming", SourceID: "beta", Confidence: 86}, queued))
		assert.Equal(t, "queued", h.matcher.PickWording(ctx, Candidate{Fact: "incoming", SourceID: "beta", Confidence: 84}, queued))
	})
}
