package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/archive"
	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/fingerprint"
	"github.com/Harshitk-cp/factline/internal/registry"
)

type PipelineConfig struct {
	MinConfidence        int
	RecentWindow         int
	CorrectionLookback   time.Duration
	RetentionDays        int
	QueueBackupThreshold int
	QueueBackupAge       time.Duration
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MinConfidence:        domain.DefaultQueueConfidence,
		RecentWindow:         DefaultRecentWindow,
		CorrectionLookback:   7 * 24 * time.Hour,
		RetentionDays:        30,
		QueueBackupThreshold: 200,
		QueueBackupAge:       20 * time.Hour,
	}
}

type PipelineDeps struct {
	Registry    *registry.Registry
	Oracle      domain.Oracle
	Cache       domain.HeadlineCache
	Stories     domain.StoryStore
	Queue       *Queue
	Matcher     *Matcher
	Publication *PublicationService
	Corrections *CorrectionService
	State       *State
	Alerter     *Alerter
	Tracker     *FailureTracker
}

// Pipeline runs one verification cycle over a batch of headlines. It does
// not schedule itself.
type Pipeline struct {
	PipelineDeps
	cfg    PipelineConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewPipeline(deps PipelineDeps, cfg PipelineConfig, logger *zap.Logger) *Pipeline {
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = DefaultRecentWindow
	}
	if cfg.CorrectionLookback <= 0 {
		cfg.CorrectionLookback = 7 * 24 * time.Hour
	}
	return &Pipeline{PipelineDeps: deps, cfg: cfg, logger: logger, now: time.Now}
}

// EnsureEpoch starts a new epoch when the UTC day changed: the finished day
// is archived, caches of other days dropped, expired stories deleted and
// degraded collaborators given a fresh chance.
func (p *Pipeline) EnsureEpoch(ctx context.Context) string {
	now := p.now().UTC()
	day := now.Format(domain.DayLayout)
	prev := p.State.Epoch()
	if prev == day {
		return day
	}

	archiveDay := prev
	if prev == "" {
		archiveDay = now.AddDate(0, 0, -1).Format(domain.DayLayout)
	}
	if err := p.Publication.ArchiveDay(ctx, archiveDay); err != nil {
		p.Tracker.Failure(ctx, ServiceArchive, err)
	}

	p.State.setEpoch(day)
	if err := p.Cache.Reset(ctx, day); err != nil {
		p.logger.Warn("failed to reset headline cache", zap.String("epoch", day), zap.Error(err))
	}
	if p.cfg.RetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -p.cfg.RetentionDays).Format(domain.DayLayout)
		n, err := p.Stories.DeleteBefore(ctx, cutoff)
		if err != nil {
			p.logger.Warn("failed to delete old stories", zap.String("before", cutoff), zap.Error(err))
		} else if n > 0 {
			p.logger.Info("deleted old stories", zap.String("before", cutoff), zap.Int64("count", n))
		}
	}
	if prev != "" {
		p.State.clearAllDegraded()
	}

	p.logger.Info("epoch started", zap.String("epoch", day), zap.String("previous", prev))
	return day
}

// RunCycle processes headlines strictly in order and returns the counters.
func (p *Pipeline) RunCycle(ctx context.Context, headlines []domain.Headline) (domain.CycleStats, error) {
	started := p.now()
	stats := domain.CycleStats{
		Cycle:     p.State.nextCycle(),
		RunID:     uuid.New().String(),
		StartedAt: started.UTC(),
		Scraped:   len(headlines),
	}
	logger := p.logger.With(zap.Int("cycle", stats.Cycle), zap.String("run_id", stats.RunID))

	stats.Epoch = p.EnsureEpoch(ctx)
	stats.Expired = len(p.Queue.Expire(ctx, started))

	for _, h := range headlines {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := p.process(ctx, stats.Epoch, h, &stats, logger); err != nil {
			logger.Error("failed to process headline",
				zap.String("source_id", h.SourceID),
				zap.String("headline", archive.Preview(h.Text, 80)),
				zap.Error(err),
			)
		}
	}

	saveErr := p.Queue.Save(ctx)
	stats.QueueSize = p.Queue.Len()
	p.checkBackup(ctx, started)

	stats.Duration = p.now().Sub(started)
	p.State.recordCycle(stats)
	if saveErr != nil {
		return stats, fmt.Errorf("save queue: %w", saveErr)
	}
	logger.Info("cycle complete",
		zap.Int("scraped", stats.Scraped),
		zap.Int("processed", stats.Processed),
		zap.Int("published", stats.Published),
		zap.Int("queued", stats.Queued),
		zap.Int("merged", stats.Merged),
		zap.Int("corrected", stats.Corrected),
		zap.Int("blocked", stats.Blocked),
		zap.Int("expired", stats.Expired),
		zap.Int("queue_size", stats.QueueSize),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func (p *Pipeline) extract(ctx context.Context, epoch, hash string, h domain.Headline) domain.ExtractedFact {
	if f, ok, err := p.Cache.GetExtraction(ctx, epoch, hash); err == nil && ok {
		f.Provenance = domain.ProvenanceCache
		return f
	}
	f, err := p.Oracle.Extract(ctx, h.Text)
	if err != nil {
		p.Tracker.Failure(ctx, ServiceOracle, err)
		return f
	}
	p.Tracker.Success(ServiceOracle)
	if err := p.Cache.PutExtraction(ctx, epoch, hash, f); err != nil {
		p.logger.Warn("failed to cache extraction", zap.Error(err))
	}
	return f
}

func (p *Pipeline) process(ctx context.Context, epoch string, h domain.Headline, stats *domain.CycleStats, logger *zap.Logger) error {
	hash := fingerprint.Hash(h.Text)
	seen, err := p.Cache.SeenHeadline(ctx, epoch, hash)
	if err != nil {
		logger.Warn("headline cache unavailable", zap.Error(err))
	}
	if seen {
		stats.Skipped++
		return nil
	}
	if err := p.Cache.MarkHeadline(ctx, epoch, hash); err != nil {
		logger.Warn("failed to mark headline", zap.Error(err))
	}

	f := p.extract(ctx, epoch, hash, h)
	stats.Processed++
	if f.Skipped() || f.Confidence < p.cfg.MinConfidence || !f.Newsworthy {
		stats.Rejected++
		logger.Debug("fact rejected",
			zap.String("source_id", h.SourceID),
			zap.Int("confidence", f.Confidence),
			zap.Bool("newsworthy", f.Newsworthy),
		)
		return nil
	}

	today, err := p.Publication.Today(ctx)
	if err != nil {
		return fmt.Errorf("load today's stories: %w", err)
	}
	if p.Matcher.IsDuplicate(ctx, f.Fact, today) {
		stats.Duplicates++
		return nil
	}

	if matches := p.Matcher.FindMatches(ctx, f.Fact, p.Queue.Entries()); len(matches) > 0 {
		return p.verify(ctx, epoch, h, f, matches, stats, logger)
	}

	if story := FindOverlap(today, f.Fact); story != nil && !story.Credits(h.SourceName) {
		merged, err := p.Publication.MergeLateDetail(ctx, story, h, f.Fact)
		if err != nil {
			return err
		}
		if merged {
			stats.Merged++
			return nil
		}
	}

	if p.Queue.Insert(domain.NewQueueEntry(h, f)) {
		stats.Queued++
	}
	return nil
}

// verify walks the matches in queue order and publishes with the first
// independent one whose chosen wording does not contradict a recent story.
func (p *Pipeline) verify(ctx context.Context, epoch string, h domain.Headline, f domain.ExtractedFact, matches []domain.QueueEntry, stats *domain.CycleStats, logger *zap.Logger) error {
	window, err := p.Stories.ListSince(ctx, p.now().Add(-p.cfg.CorrectionLookback))
	if err != nil {
		return fmt.Errorf("load lookback: %w", err)
	}
	recent, eligible := SplitLookback(window, epoch, p.cfg.RecentWindow)

	blocked := false
	for _, m := range matches {
		if !p.Registry.Unrelated(h.SourceID, m.SourceID) {
			logger.Debug("match not independent",
				zap.String("source_id", h.SourceID),
				zap.String("queued_source_id", m.SourceID),
			)
			continue
		}

		wording := p.Matcher.PickWording(ctx, Candidate{Fact: f.Fact, SourceID: h.SourceID, Confidence: f.Confidence}, m)
		if p.contradictsRecent(ctx, wording, recent) {
			blocked = true
			stats.Blocked++
			p.Alerter.Alert(ctx, domain.AlertContradiction,
				fmt.Sprintf("blocked %q from %s and %s", archive.Preview(wording, 80), h.SourceName, m.SourceName))
			continue
		}

		queued := domain.Headline{
			Text:           m.Fact,
			SourceID:       m.SourceID,
			SourceName:     m.SourceName,
			BaselineRating: m.BaselineRating,
			URL:            m.SourceURL,
			Timestamp:      m.InsertedAt,
		}
		story, err := p.Publication.Publish(ctx, wording, []domain.Headline{h, queued})
		if err != nil {
			return err
		}
		p.Queue.Remove(m)
		stats.Published++

		rec, err := p.Corrections.Check(ctx, story, eligible)
		if err != nil {
			logger.Error("correction failed", zap.String("story_id", story.ID), zap.Error(err))
		}
		if rec != nil {
			stats.Corrected++
		}
		return nil
	}

	if !blocked {
		stats.Unverified++
	}
	return nil
}

func (p *Pipeline) contradictsRecent(ctx context.Context, fact string, recent []domain.PublishedStory) bool {
	if len(recent) == 0 {
		return false
	}
	verdict, err := p.Oracle.Contradicts(ctx, fact, facts(recent))
	if err != nil {
		p.Tracker.Failure(ctx, ServiceOracle, err)
		return false
	}
	p.Tracker.Success(ServiceOracle)
	return verdict.Contradicts
}

func (p *Pipeline) checkBackup(ctx context.Context, now time.Time) {
	size := p.Queue.Len()
	oldest := p.Queue.Oldest(now)
	if (p.cfg.QueueBackupThreshold > 0 && size > p.cfg.QueueBackupThreshold) ||
		(p.cfg.QueueBackupAge > 0 && oldest > p.cfg.QueueBackupAge) {
		p.Alerter.Alert(ctx, domain.AlertQueueBackup,
			fmt.Sprintf("verification queue has %d entries, oldest %s", size, oldest.Truncate(time.Minute)))
	}
}
