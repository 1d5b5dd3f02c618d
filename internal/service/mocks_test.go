package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/archive"
	"github.com/Harshitk-cp/factline/internal/cache"
	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/llm"
	"github.com/Harshitk-cp/factline/internal/registry"
	"github.com/Harshitk-cp/factline/internal/store"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

// Mock RatingStore
type mockRatingStore struct {
	mu      sync.Mutex
	records map[string]*domain.SourceReliabilityRecord
	err     error
}

func newMockRatingStore() *mockRatingStore {
	return &mockRatingStore{records: make(map[string]*domain.SourceReliabilityRecord)}
}

func (m *mockRatingStore) Get(_ context.Context, sourceID string) (*domain.SourceReliabilityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[sourceID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *mockRatingStore) Increment(_ context.Context, sourceID string, successes, failures int) (*domain.SourceReliabilityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[sourceID]
	if !ok {
		rec = &domain.SourceReliabilityRecord{SourceID: sourceID}
		m.records[sourceID] = rec
	}
	rec.Successes += successes
	rec.Failures += failures
	rec.UpdatedAt = time.Now()
	cp := *rec
	return &cp, nil
}

func (m *mockRatingStore) List(_ context.Context) ([]domain.SourceReliabilityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SourceReliabilityRecord
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRatingStore) counts(sourceID string) (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[sourceID]
	if !ok {
		return 0, 0
	}
	return rec.Successes, rec.Failures
}

// Mock AuditStore
type mockAuditStore struct {
	entries []domain.AuditLogEntry
}

func (m *mockAuditStore) Append(_ context.Context, e *domain.AuditLogEntry) error {
	m.entries = append(m.entries, *e)
	return nil
}

// Mock QueueStore
type mockQueueStore struct {
	entries []domain.QueueEntry
	saves   int
	saveErr error
}

func (m *mockQueueStore) Load(_ context.Context) ([]domain.QueueEntry, error) {
	out := make([]domain.QueueEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *mockQueueStore) Save(_ context.Context, entries []domain.QueueEntry) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries = make([]domain.QueueEntry, len(entries))
	copy(m.entries, entries)
	return nil
}

// Mock StoryStore
type mockStoryStore struct {
	mu        sync.Mutex
	stories   map[string]domain.PublishedStory
	deleted   []string
	createErr error
	updateErr error
}

func newMockStoryStore() *mockStoryStore {
	return &mockStoryStore{stories: make(map[string]domain.PublishedStory)}
}

func (m *mockStoryStore) Create(_ context.Context, s *domain.PublishedStory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.stories[s.ID] = *s
	return nil
}

func (m *mockStoryStore) Update(_ context.Context, s *domain.PublishedStory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.stories[s.ID]; !ok {
		return store.ErrNotFound
	}
	m.stories[s.ID] = *s
	return nil
}

func (m *mockStoryStore) GetByID(_ context.Context, id string) (*domain.PublishedStory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (m *mockStoryStore) sorted(keep func(domain.PublishedStory) bool) []domain.PublishedStory {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PublishedStory
	for _, s := range m.stories {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.Before(out[j].PublishedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *mockStoryStore) ListByDay(_ context.Context, day string) ([]domain.PublishedStory, error) {
	return m.sorted(func(s domain.PublishedStory) bool { return s.Day == day }), nil
}

func (m *mockStoryStore) ListSince(_ context.Context, since time.Time) ([]domain.PublishedStory, error) {
	return m.sorted(func(s domain.PublishedStory) bool { return !s.PublishedAt.Before(since) }), nil
}

func (m *mockStoryStore) DeleteBefore(_ context.Context, day string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.stories {
		if s.Day < day {
			delete(m.stories, id)
			m.deleted = append(m.deleted, id)
			n++
		}
	}
	return n, nil
}

func (m *mockStoryStore) get(id string) domain.PublishedStory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stories[id]
}

// Mock CorrectionStore
type mockCorrectionStore struct {
	records []domain.CorrectionRecord
}

func (m *mockCorrectionStore) Append(_ context.Context, c *domain.CorrectionRecord) error {
	m.records = append(m.records, *c)
	return nil
}

func (m *mockCorrectionStore) ListSince(_ context.Context, since time.Time) ([]domain.CorrectionRecord, error) {
	var out []domain.CorrectionRecord
	for _, c := range m.records {
		if !c.Timestamp.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

type notice struct {
	Message  string
	Category domain.AlertCategory
}

type mockNotifier struct {
	sent []notice
	err  error
}

func (m *mockNotifier) Notify(_ context.Context, message string, category domain.AlertCategory) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, notice{message, category})
	return nil
}

func (m *mockNotifier) count(category domain.AlertCategory) int {
	n := 0
	for _, s := range m.sent {
		if s.Category == category {
			n++
		}
	}
	return n
}

type mockSpeaker struct {
	texts []string
	err   error
}

func (m *mockSpeaker) Speak(_ context.Context, text string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.texts = append(m.texts, text)
	return "audio_" + text[:min(4, len(text))] + ".mp3", nil
}

type mockPublisher struct {
	objects map[string][]byte
	err     error
}

func (m *mockPublisher) Put(_ context.Context, key string, body []byte, _ string) error {
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = body
	return nil
}

type mockSink struct {
	events []domain.StoryEvent
}

func (m *mockSink) Emit(_ context.Context, e domain.StoryEvent) error {
	m.events = append(m.events, e)
	return nil
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]domain.Source{
		{ID: "alpha", Name: "Alpha Wire", Owner: "Alpha Holdings", Accuracy: 9.0, Bias: 0.2,
			Holders: []domain.Holder{{Name: "Vanguard"}, {Name: "BlackRock"}}},
		{ID: "beta", Name: "Beta News", Owner: "Beta Media", Accuracy: 7.0, Bias: -0.5,
			Holders: []domain.Holder{{Name: "Vanguard"}}},
		{ID: "gamma", Name: "Gamma Times", Owner: "Gamma Trust", Accuracy: 8.0},
		{ID: "alpha-local", Name: "Alpha Local", Owner: "Alpha Holdings", Accuracy: 8.5},
		{ID: "delta", Name: "Delta Post", Owner: "Delta Group", Accuracy: 7.0, Bias: -0.5},
	}, 3)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

// harness wires the whole pipeline over in-memory collaborators and a
// controllable clock.
type harness struct {
	now time.Time

	reg         *registry.Registry
	ratings     *mockRatingStore
	audit       *mockAuditStore
	queueStore  *mockQueueStore
	stories     *mockStoryStore
	corrections *mockCorrectionStore
	notifier    *mockNotifier
	speaker     *mockSpeaker
	publisher   *mockPublisher
	sink        *mockSink
	oracle      *llm.MockOracle
	cache       *cache.Memory

	state       *State
	alerter     *Alerter
	tracker     *FailureTracker
	reliability *ReliabilityService
	queue       *Queue
	matcher     *Matcher
	publication *PublicationService
	correction  *CorrectionService
	pipeline    *Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		now:         time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		reg:         testRegistry(t),
		ratings:     newMockRatingStore(),
		audit:       &mockAuditStore{},
		queueStore:  &mockQueueStore{},
		stories:     newMockStoryStore(),
		corrections: &mockCorrectionStore{},
		notifier:    &mockNotifier{},
		speaker:     &mockSpeaker{},
		publisher:   &mockPublisher{},
		sink:        &mockSink{},
		oracle:      llm.NewMockOracle(),
	}
	clock := func() time.Time { return h.now }
	logger := testLogger()

	mem, err := cache.NewMemory("")
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	h.cache = mem

	h.state = NewState(h.now)
	h.alerter = NewAlerter(h.notifier, nil, h.state, logger)
	h.alerter.now = clock
	h.tracker = NewFailureTracker(h.state, h.alerter, 3, logger)
	h.reliability = NewReliabilityService(h.ratings, h.audit, h.reg, DefaultMaturityThreshold, logger)
	h.reliability.now = clock
	h.queue = NewQueue(h.queueStore, h.reliability, DefaultQueueTimeout, logger)
	h.matcher = NewMatcher(h.oracle, h.reliability, h.tracker, logger)
	h.publication = NewPublicationService(PublicationDeps{
		Stories:     h.stories,
		Corrections: h.corrections,
		Oracle:      h.oracle,
		Reliability: h.reliability,
		Speaker:     h.speaker,
		Publisher:   h.publisher,
		Events:      h.sink,
		State:       h.state,
		Tracker:     h.tracker,
		Names:       registry.NewNameIndex(h.reg),
		Feed:        archive.FeedMeta{Title: "factline", Link: "https://factline.test"},
	}, logger)
	h.publication.now = clock
	h.correction = NewCorrectionService(h.stories, h.corrections, h.oracle, h.publication, h.alerter, h.tracker, logger)
	h.correction.now = clock
	h.pipeline = NewPipeline(PipelineDeps{
		Registry:    h.reg,
		Oracle:      h.oracle,
		Cache:       h.cache,
		Stories:     h.stories,
		Queue:       h.queue,
		Matcher:     h.matcher,
		Publication: h.publication,
		Corrections: h.correction,
		State:       h.state,
		Alerter:     h.alerter,
		Tracker:     h.tracker,
	}, DefaultPipelineConfig(), logger)
	h.pipeline.now = clock
	return h
}

func (h *harness) headline(sourceID, text string) domain.Headline {
	src, _ := h.reg.Get(sourceID)
	return domain.Headline{
		Text:           text,
		SourceID:       sourceID,
		SourceName:     src.Name,
		BaselineRating: src.Accuracy,
		URL:            "https://" + sourceID + ".test/story",
		Timestamp:      h.now,
	}
}

// extracts registers the oracle's extraction of a headline.
func (h *harness) extracts(headline, fact string, confidence int) {
	h.oracle.ExtractResponses[headline] = domain.ExtractedFact{Fact: fact, Confidence: confidence, Newsworthy: true}
}

// seedStory stores a story as if it had been published at the given time.
func (h *harness) seedStory(day string, seq int, fact string, publishedAt time.Time, sources ...string) domain.PublishedStory {
	var srcs []domain.StorySource
	for _, id := range sources {
		src, _ := h.reg.Get(id)
		srcs = append(srcs, domain.StorySource{ID: id, Name: src.Name})
	}
	st := domain.PublishedStory{
		ID:          domain.StoryID(day, seq),
		Day:         day,
		Sequence:    seq,
		Hash:        "seed" + domain.StoryID(day, seq),
		Fact:        fact,
		Sources:     srcs,
		Attribution: Attribution(srcs),
		PublishedAt: publishedAt,
		UpdatedAt:   publishedAt,
		Status:      domain.StoryPublished,
	}
	h.stories.stories[st.ID] = st
	return st
}

func sameEventAll(_ string, candidates []string) []int {
	out := make([]int, len(candidates))
	for i := range candidates {
		out[i] = i
	}
	return out
}
