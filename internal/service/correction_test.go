package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/factline/internal/domain"
)

func TestSplitLookback(t *testing.T) {
	var stories []domain.PublishedStory
	for _, id := range []string{"y1", "y2"} {
		stories = append(stories, domain.PublishedStory{ID: id, Day: "2026-03-13"})
	}
	for _, id := range []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"} {
		st := domain.PublishedStory{ID: id, Day: "2026-03-14"}
		if id == "t3" {
			st.Status = domain.StoryRetracted
		}
		stories = append(stories, st)
	}

	recent, eligible := SplitLookback(stories, "2026-03-14", 5)

	assert.Equal(t, []string{"t2", "t4", "t5", "t6", "t7"}, ids(recent))
	assert.Equal(t, []string{"y1", "y2", "t1"}, ids(eligible))
}

func TestSplitLookback_FewStoriesToday(t *testing.T) {
	stories := []domain.PublishedStory{
		{ID: "y1", Day: "2026-03-13"},
		{ID: "t1", Day: "2026-03-14"},
	}
	recent, eligible := SplitLookback(stories, "2026-03-14", 5)
	assert.Equal(t, []string{"t1"}, ids(recent))
	assert.Equal(t, []string{"y1"}, ids(eligible), "previous days are always eligible")
}

func ids(stories []domain.PublishedStory) []string {
	out := make([]string, len(stories))
	for i, st := range stories {
		out[i] = st.ID
	}
	return out
}

func contradictFirst(reason string, retract bool) func(string, []string) domain.Contradiction {
	return func(string, []string) domain.Contradiction {
		return domain.Contradiction{Contradicts: true, Index: 0, Reason: reason, Retract: retract, Provenance: domain.ProvenanceStrict}
	}
}

func TestCorrectionService_Check_Corrects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	old := h.seedStory("2026-03-13", 4, "Earthquake in Peru kills 3.", h.now.Add(-20*time.Hour), "alpha")
	story := &domain.PublishedStory{ID: "2026-03-14-001", Fact: "Earthquake in Peru kills 5.",
		Sources: []domain.StorySource{{ID: "beta", Name: "Beta News"}, {ID: "gamma", Name: "Gamma Times"}}}
	h.oracle.ContradictsFunc = contradictFirst("death toll revised", false)

	rec, err := h.correction.Check(ctx, story, []domain.PublishedStory{old})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, domain.CorrectionTypeCorrection, rec.Type)
	assert.Equal(t, old.ID, rec.StoryID)
	assert.Equal(t, "Earthquake in Peru kills 3.", rec.OriginalFact)
	assert.Equal(t, "Earthquake in Peru kills 5.", rec.CorrectedFact)
	assert.Equal(t, []string{"Beta News", "Gamma Times"}, rec.CorrectingSources)
	assert.NotEmpty(t, rec.ID)

	got := h.stories.get(old.ID)
	assert.Equal(t, domain.StoryCorrected, got.Status)
	assert.Equal(t, "Earthquake in Peru kills 3.", got.OriginalFact)
	assert.Equal(t, "Earthquake in Peru kills 5.", got.Fact)
	require.NotNil(t, got.Correction)
	assert.Equal(t, rec.ID, got.Correction.ID)

	require.Len(t, h.corrections.records, 1)
	require.Len(t, h.speaker.texts, 1)
	assert.True(t, strings.HasPrefix(h.speaker.texts[0], "Correction:"))
	assert.NotEmpty(t, got.AudioRef)
	assert.Equal(t, 1, h.notifier.count(domain.AlertContradiction))
	require.Len(t, h.sink.events, 1)
	assert.Equal(t, domain.EventCorrected, h.sink.events[0].Kind)
}

func TestCorrectionService_Check_Retracts(t *testing.T) {
	h := newHarness(t)
	old := h.seedStory("2026-03-13", 1, "Minister Diaz resigns.", h.now.Add(-20*time.Hour), "alpha")
	story := &domain.PublishedStory{ID: "2026-03-14-001", Fact: "Minister Diaz remains in office after rumors.",
		Sources: []domain.StorySource{{ID: "beta", Name: "Beta News"}}}
	h.oracle.ContradictsFunc = contradictFirst("resignation never happened", true)

	rec, err := h.correction.Check(context.Background(), story, []domain.PublishedStory{old})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, domain.CorrectionTypeRetraction, rec.Type)
	assert.Empty(t, rec.CorrectedFact)
	got := h.stories.get(old.ID)
	assert.Equal(t, domain.StoryRetracted, got.Status)
	assert.Equal(t, "Minister Diaz resigns.", got.Fact, "retraction keeps the text")
	assert.Equal(t, domain.EventRetracted, h.sink.events[0].Kind)
}

func TestCorrectionService_Check_PreservesHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	old := h.seedStory("2026-03-13", 1, "Flood kills 10.", h.now.Add(-20*time.Hour), "alpha")
	h.oracle.ContradictsFunc = contradictFirst("toll revised", false)

	first := &domain.PublishedStory{ID: "2026-03-14-001", Fact: "Flood kills 12.", Sources: []domain.StorySource{{Name: "Beta News"}}}
	_, err := h.correction.Check(ctx, first, []domain.PublishedStory{old})
	require.NoError(t, err)

	h.now = h.now.Add(time.Hour)
	second := &domain.PublishedStory{ID: "2026-03-14-002", Fact: "Flood kills 15.", Sources: []domain.StorySource{{Name: "Gamma Times"}}}
	_, err = h.correction.Check(ctx, second, []domain.PublishedStory{h.stories.get(old.ID)})
	require.NoError(t, err)

	require.Len(t, h.corrections.records, 2)
	assert.Equal(t, "Flood kills 10.", h.corrections.records[0].OriginalFact, "first record is never edited")
	assert.Equal(t, "Flood kills 12.", h.corrections.records[0].CorrectedFact)
	assert.Equal(t, "Flood kills 12.", h.corrections.records[1].OriginalFact)
	assert.Equal(t, "Flood kills 15.", h.stories.get(old.ID).Fact)
}

func TestCorrectionService_Check_NoTarget(t *testing.T) {
	h := newHarness(t)
	a := h.seedStory("2026-03-13", 1, "A.", h.now.Add(-20*time.Hour), "alpha")
	b := h.seedStory("2026-03-13", 2, "B.", h.now.Add(-19*time.Hour), "alpha")
	h.oracle.ContradictsFunc = func(string, []string) domain.Contradiction {
		return domain.Contradiction{Contradicts: true, Index: -1}
	}

	rec, err := h.correction.Check(context.Background(), &domain.PublishedStory{ID: "new", Fact: "C."}, []domain.PublishedStory{a, b})
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, h.corrections.records)
}

func TestCorrectionService_Check_OracleError(t *testing.T) {
	h := newHarness(t)
	a := h.seedStory("2026-03-13", 1, "A.", h.now.Add(-20*time.Hour), "alpha")
	h.oracle.ContradictsError = errors.New("unavailable")

	rec, err := h.correction.Check(context.Background(), &domain.PublishedStory{ID: "new", Fact: "C."}, []domain.PublishedStory{a})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCorrectionService_Check_NothingEligible(t *testing.T) {
	h := newHarness(t)
	rec, err := h.correction.Check(context.Background(), &domain.PublishedStory{ID: "new", Fact: "C."}, nil)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, h.oracle.ContradictsCalls)
}

func TestAnnouncement_ClosesSentences(t *testing.T) {
	retraction := announcement(&domain.CorrectionRecord{
		Type:         domain.CorrectionTypeRetraction,
		OriginalFact: "Quake strikes near Valparaiso",
	})
	assert.Equal(t, "Correction: we previously reported that Quake strikes near Valparaiso. This report has been retracted.", retraction)

	correction := announcement(&domain.CorrectionRecord{
		Type:          domain.CorrectionTypeCorrection,
		OriginalFact:  "Quake kills 12.",
		CorrectedFact: "Quake kills 9",
	})
	assert.Equal(t, "Correction: we previously reported that Quake kills 12. The accurate information is: Quake kills 9.", correction)
}
