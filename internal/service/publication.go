package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/archive"
	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/fingerprint"
	"github.com/Harshitk-cp/factline/internal/registry"
)

const attributionShown = 2

var ErrNoSources = errors.New("story needs at least one source")

// PublicationService owns the day's story ledger and everything derived
// from it: audio, the public feeds and the event stream.
type PublicationService struct {
	stories     domain.StoryStore
	corrections domain.CorrectionStore
	oracle      domain.Oracle
	reliability *ReliabilityService
	speaker     domain.Speaker
	publisher   domain.Publisher
	events      domain.EventSink
	state       *State
	tracker     *FailureTracker
	names       *registry.NameIndex
	logger      *zap.Logger
	now         func() time.Time

	Feed     archive.FeedMeta
	Lookback time.Duration
}

type PublicationDeps struct {
	Stories     domain.StoryStore
	Corrections domain.CorrectionStore
	Oracle      domain.Oracle
	Reliability *ReliabilityService
	// Speaker, Publisher and Events are optional.
	Speaker   domain.Speaker
	Publisher domain.Publisher
	Events    domain.EventSink
	State     *State
	Tracker   *FailureTracker
	// Names backfills sources of stories that only carry attribution text.
	Names    *registry.NameIndex
	Feed     archive.FeedMeta
	Lookback time.Duration
}

func NewPublicationService(deps PublicationDeps, logger *zap.Logger) *PublicationService {
	lookback := deps.Lookback
	if lookback <= 0 {
		lookback = 7 * 24 * time.Hour
	}
	return &PublicationService{
		stories:     deps.Stories,
		corrections: deps.Corrections,
		oracle:      deps.Oracle,
		reliability: deps.Reliability,
		speaker:     deps.Speaker,
		publisher:   deps.Publisher,
		events:      deps.Events,
		state:       deps.State,
		tracker:     deps.Tracker,
		names:       deps.Names,
		logger:      logger,
		now:         time.Now,
		Feed:        deps.Feed,
		Lookback:    lookback,
	}
}

func (s *PublicationService) day() string {
	if epoch := s.state.Epoch(); epoch != "" {
		return epoch
	}
	return s.now().UTC().Format(domain.DayLayout)
}

// Today returns the stories of the current epoch in publication order.
func (s *PublicationService) Today(ctx context.Context) ([]domain.PublishedStory, error) {
	stories, err := s.stories.ListByDay(ctx, s.day())
	if err != nil {
		return nil, err
	}
	if s.names != nil {
		for i := range stories {
			if len(stories[i].Sources) == 0 && stories[i].Attribution != "" {
				stories[i].Sources = s.names.ParseAttribution(stories[i].Attribution)
			}
		}
	}
	return stories, nil
}

// Attribution renders the first sources as "Name acc|bias" and counts the rest.
func Attribution(sources []domain.StorySource) string {
	parts := make([]string, 0, attributionShown)
	for i, src := range sources {
		if i == attributionShown {
			break
		}
		if src.Scores == "" {
			parts = append(parts, src.Name)
			continue
		}
		parts = append(parts, src.Name+" "+src.Scores)
	}
	out := strings.Join(parts, " · ")
	if extra := len(sources) - attributionShown; extra > 0 {
		out += fmt.Sprintf(" +%d more", extra)
	}
	return out
}

// rankSources orders sources by learned rating, best first. Ties keep the
// corroboration order.
func (s *PublicationService) rankSources(ctx context.Context, sources []domain.StorySource) {
	ratings := make(map[string]float64, len(sources))
	for _, src := range sources {
		ratings[src.ID] = s.reliability.LearnedRating(ctx, src.ID)
	}
	sort.SliceStable(sources, func(i, j int) bool { return ratings[sources[i].ID] > ratings[sources[j].ID] })
}

func (s *PublicationService) storySource(ctx context.Context, h domain.Headline) domain.StorySource {
	return domain.StorySource{ID: h.SourceID, Name: h.SourceName, Scores: s.reliability.CompactScores(ctx, h.SourceID)}
}

// Publish creates the day's next story from fact with every corroborating
// source credited with a success.
func (s *PublicationService) Publish(ctx context.Context, fact string, corroborating []domain.Headline) (*domain.PublishedStory, error) {
	if len(corroborating) == 0 {
		return nil, ErrNoSources
	}
	day := s.day()
	today, err := s.stories.ListByDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list today's stories: %w", err)
	}
	seq := 1
	for _, st := range today {
		if st.Sequence >= seq {
			seq = st.Sequence + 1
		}
	}

	seen := make(map[string]bool, len(corroborating))
	sources := make([]domain.StorySource, 0, len(corroborating))
	for _, h := range corroborating {
		if seen[h.SourceID] {
			continue
		}
		seen[h.SourceID] = true
		sources = append(sources, s.storySource(ctx, h))
	}
	s.rankSources(ctx, sources)

	now := s.now().UTC()
	hash := fingerprint.Hash(fact)
	story := &domain.PublishedStory{
		ID:          domain.StoryID(day, seq),
		Day:         day,
		Sequence:    seq,
		Hash:        hash,
		Fact:        fact,
		Sources:     sources,
		Attribution: Attribution(sources),
		AudioRef:    s.speak(ctx, fact),
		PublishedAt: now,
		UpdatedAt:   now,
		Status:      domain.StoryPublished,
	}

	if err := s.stories.Create(ctx, story); err != nil {
		return nil, fmt.Errorf("create story %s: %w", story.ID, err)
	}
	for _, src := range sources {
		s.reliability.RecordSuccess(ctx, src.ID, hash)
	}

	s.logger.Info("story published",
		zap.String("story_id", story.ID),
		zap.String("fact", archive.Preview(fact, 80)),
		zap.String("attribution", story.Attribution),
	)
	s.Republish(ctx, domain.EventPublished, story, nil)
	return story, nil
}

// FindOverlap returns the first story of today whose raw word overlap with
// fact is above PublishedOverlap.
func FindOverlap(today []domain.PublishedStory, fact string) *domain.PublishedStory {
	for i := range today {
		if today[i].Status == domain.StoryRetracted {
			continue
		}
		if RawOverlapRatio(fact, today[i].Fact) > PublishedOverlap {
			return &today[i]
		}
	}
	return nil
}

// MergeLateDetail appends the new information a late source brings to an
// already published story. It reports whether the story changed.
func (s *PublicationService) MergeLateDetail(ctx context.Context, story *domain.PublishedStory, h domain.Headline, fact string) (bool, error) {
	if story.Credits(h.SourceName) {
		return false, nil
	}

	delta, ok, err := s.oracle.ExtractDelta(ctx, fact, story.Fact)
	if err != nil {
		s.tracker.Failure(ctx, ServiceOracle, err)
		return false, nil
	}
	s.tracker.Success(ServiceOracle)
	if !ok {
		s.logger.Debug("late source adds nothing", zap.String("story_id", story.ID), zap.String("source_id", h.SourceID))
		return false, nil
	}

	detail := SubstitutePronoun(delta, story.Fact)
	// Work on a copy so a failed update leaves the caller's story untouched.
	updated := *story
	updated.Fact = endSentence(story.Fact) + " " + detail
	updated.Sources = append(append([]domain.StorySource(nil), story.Sources...), s.storySource(ctx, h))
	s.rankSources(ctx, updated.Sources)
	updated.Attribution = Attribution(updated.Sources)
	if audio := s.speak(ctx, updated.Fact); audio != "" {
		updated.AudioRef = audio
	}
	updated.UpdatedAt = s.now().UTC()

	if err := s.stories.Update(ctx, &updated); err != nil {
		return false, fmt.Errorf("update story %s: %w", story.ID, err)
	}
	*story = updated
	s.reliability.RecordSuccess(ctx, h.SourceID, fingerprint.Hash(fact))

	s.logger.Info("late detail merged",
		zap.String("story_id", story.ID),
		zap.String("source_id", h.SourceID),
		zap.String("detail", archive.Preview(detail, 80)),
	)
	s.Republish(ctx, domain.EventUpdated, story, nil)
	return true, nil
}

// endSentence trims text and closes it with a period unless it already ends
// a sentence.
func endSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") {
		return text
	}
	return text + "."
}

// speak is best effort and returns "" when no audio was produced.
func (s *PublicationService) speak(ctx context.Context, text string) string {
	if s.speaker == nil || s.state.IsDegraded(ServiceSpeech) {
		return ""
	}
	ref, err := s.speaker.Speak(ctx, text)
	if err != nil {
		s.tracker.Failure(ctx, ServiceSpeech, err)
		return ""
	}
	s.tracker.Success(ServiceSpeech)
	return ref
}

// Republish emits the change and rewrites the public feeds. Failures are
// logged and tracked, never returned.
func (s *PublicationService) Republish(ctx context.Context, kind string, story *domain.PublishedStory, correction *domain.CorrectionRecord) {
	now := s.now().UTC()
	if s.events != nil && story != nil {
		err := s.events.Emit(ctx, domain.StoryEvent{Kind: kind, Story: *story, Correction: correction, EmittedAt: now})
		if err != nil {
			s.tracker.Failure(ctx, ServiceEvents, err)
		} else {
			s.tracker.Success(ServiceEvents)
		}
	}
	if s.publisher == nil {
		return
	}
	if err := s.writeFeeds(ctx, now); err != nil {
		s.tracker.Failure(ctx, ServiceArchive, err)
		return
	}
	s.tracker.Success(ServiceArchive)
}

func (s *PublicationService) writeFeeds(ctx context.Context, now time.Time) error {
	since := now.Add(-s.Lookback)
	recent, err := s.stories.ListSince(ctx, since)
	if err != nil {
		return fmt.Errorf("list stories: %w", err)
	}
	corrections, err := s.corrections.ListSince(ctx, since)
	if err != nil {
		return fmt.Errorf("list corrections: %w", err)
	}
	rss, err := archive.RenderRSS(s.Feed, recent, corrections, now)
	if err != nil {
		return err
	}
	if err := s.publisher.Put(ctx, archive.FeedKey, []byte(rss), "application/rss+xml"); err != nil {
		return err
	}
	briefing, err := archive.FlashBriefingJSON(s.Feed, recent)
	if err != nil {
		return err
	}
	if err := s.publisher.Put(ctx, archive.FlashBriefingKey, briefing, "application/json"); err != nil {
		return err
	}

	day := s.day()
	var todayStories []domain.PublishedStory
	for _, st := range recent {
		if st.Day == day {
			todayStories = append(todayStories, st)
		}
	}
	var todayCorrections []domain.CorrectionRecord
	for _, c := range corrections {
		if c.Timestamp.UTC().Format(domain.DayLayout) == day {
			todayCorrections = append(todayCorrections, c)
		}
	}
	doc, err := archive.StoriesJSON(day, todayStories, todayCorrections, now)
	if err != nil {
		return err
	}
	return s.publisher.Put(ctx, archive.StoriesKey, doc, "application/json")
}

// ArchiveDay uploads a compressed snapshot of one day's stories.
func (s *PublicationService) ArchiveDay(ctx context.Context, day string) error {
	if s.publisher == nil {
		return nil
	}
	stories, err := s.stories.ListByDay(ctx, day)
	if err != nil {
		return fmt.Errorf("list %s: %w", day, err)
	}
	if len(stories) == 0 {
		return nil
	}
	body, err := archive.GzipJSON(struct {
		Date    string                  `json:"date"`
		Stories []domain.PublishedStory `json:"stories"`
	}{day, stories})
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	return s.publisher.Put(ctx, archive.DayArchiveKey(day), body, "application/gzip")
}
