package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/store"
)

func openTemp(t *testing.T) (*Stores, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	return s, dir
}

func TestRatingStore_IncrementCreatesLazily(t *testing.T) {
	s, dir := openTemp(t)
	ctx := context.Background()

	_, err := s.Ratings.Get(ctx, "reuters")
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec, err := s.Ratings.Increment(ctx, "reuters", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Successes)

	rec, err = s.Ratings.Increment(ctx, "reuters", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Successes)
	assert.Equal(t, 2, rec.Failures)

	// a fresh handle sees the persisted counters
	reopened, err := Open(dir)
	require.NoError(t, err)
	got, err := reopened.Ratings.Get(ctx, "reuters")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Total())

	list, err := reopened.Ratings.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAuditStore_AppendOnly(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Audit.Append(ctx, &domain.AuditLogEntry{SourceID: "a", Event: domain.AuditSuccess, FactHash: "abc", Successes: 1}))
	require.NoError(t, s.Audit.Append(ctx, &domain.AuditLogEntry{SourceID: "a", Event: domain.AuditFailure, FactHash: "def", Successes: 1, Failures: 1}))

	entries, err := s.Audit.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.AuditFailure, entries[1].Event)
}

func TestQueueStore_RoundTrip(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	entries, err := s.Queue.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Queue.Save(ctx, []domain.QueueEntry{
		{Fact: "F1", SourceID: "a", InsertedAt: now, Confidence: 90},
		{Fact: "F2", SourceID: "b", InsertedAt: now},
	}))
	entries, err = s.Queue.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "F1", entries[0].Fact)
	assert.Equal(t, domain.DefaultQueueConfidence, entries[1].EffectiveConfidence())
}

func TestQueueStore_LegacyEntriesWithoutConfidence(t *testing.T) {
	s, dir := openTemp(t)
	legacy := `[{"fact":"F","source_id":"a","source_name":"A","source_rating":8.5,"timestamp":"2024-01-01T00:00:00Z"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, queueFile), []byte(legacy), 0o644))

	entries, err := s.Queue.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 8.5, entries[0].BaselineRating)
	assert.Equal(t, domain.DefaultQueueConfidence, entries[0].EffectiveConfidence())
}

func story(day string, seq int, at time.Time) *domain.PublishedStory {
	return &domain.PublishedStory{
		ID:          domain.StoryID(day, seq),
		Day:         day,
		Sequence:    seq,
		Fact:        "fact",
		Sources:     []domain.StorySource{{ID: "a", Name: "A"}},
		PublishedAt: at,
		UpdatedAt:   at,
		Status:      domain.StoryPublished,
	}
}

func TestStoryStore_CreateUpdateGet(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	st := story("2024-03-02", 1, now)
	require.NoError(t, s.Stories.Create(ctx, st))
	assert.Error(t, s.Stories.Create(ctx, st), "duplicate id")

	st.Status = domain.StoryCorrected
	st.Correction = &domain.CorrectionRecord{ID: "c1", StoryID: st.ID, Type: domain.CorrectionTypeCorrection}
	require.NoError(t, s.Stories.Update(ctx, st))

	got, err := s.Stories.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StoryCorrected, got.Status)
	require.NotNil(t, got.Correction)
	assert.Equal(t, "c1", got.Correction.ID)

	_, err = s.Stories.GetByID(ctx, "2024-03-02-999")
	assert.ErrorIs(t, err, store.ErrNotFound)

	missing := story("2024-03-02", 7, now)
	assert.ErrorIs(t, s.Stories.Update(ctx, missing), store.ErrNotFound)
}

func TestStoryStore_ListSinceAndDeleteBefore(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, day := range []string{"2024-02-20", "2024-02-28", "2024-03-01"} {
		at := base.AddDate(0, 0, []int{-10, -2, 0}[i])
		require.NoError(t, s.Stories.Create(ctx, story(day, 1, at)))
	}
	require.NoError(t, s.Stories.Create(ctx, story("2024-03-01", 2, base.Add(time.Hour))))

	got, err := s.Stories.ListSince(ctx, base.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-02-28-001", got[0].ID)
	assert.Equal(t, "2024-03-01-002", got[2].ID)

	day, err := s.Stories.ListByDay(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Len(t, day, 2)

	removed, err := s.Stories.DeleteBefore(ctx, "2024-02-22")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	gone, err := s.Stories.ListByDay(ctx, "2024-02-20")
	require.NoError(t, err)
	assert.Empty(t, gone)
}

func TestCorrectionStore_ListSince(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Corrections.Append(ctx, &domain.CorrectionRecord{ID: "old", Timestamp: now.Add(-48 * time.Hour)}))
	require.NoError(t, s.Corrections.Append(ctx, &domain.CorrectionRecord{ID: "new", Timestamp: now, CorrectingSources: []string{"B"}}))

	got, err := s.Corrections.ListSince(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, []string{"B"}, got[0].CorrectingSources)
}
