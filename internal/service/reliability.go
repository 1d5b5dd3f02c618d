package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/registry"
	"github.com/Harshitk-cp/factline/internal/store"
)

const DefaultMaturityThreshold = 5

// ReliabilityService is the ledger of learned source accuracy. Verification
// success is the only positive signal and queue expiry the only negative one.
type ReliabilityService struct {
	ratings  domain.RatingStore
	audit    domain.AuditStore
	registry *registry.Registry
	logger   *zap.Logger
	now      func() time.Time

	Maturity int
}

func NewReliabilityService(ratings domain.RatingStore, audit domain.AuditStore, reg *registry.Registry, maturity int, logger *zap.Logger) *ReliabilityService {
	if maturity <= 0 {
		maturity = DefaultMaturityThreshold
	}
	return &ReliabilityService{
		ratings:  ratings,
		audit:    audit,
		registry: reg,
		logger:   logger,
		now:      time.Now,
		Maturity: maturity,
	}
}

func (s *ReliabilityService) RecordSuccess(ctx context.Context, sourceID, factHash string) {
	s.record(ctx, sourceID, factHash, domain.AuditSuccess, nil)
}

func (s *ReliabilityService) RecordFailure(ctx context.Context, sourceID, factHash string) {
	s.record(ctx, sourceID, factHash, domain.AuditFailure, nil)
}

// RecordFailureWithReason attaches context to the audit entry.
func (s *ReliabilityService) RecordFailureWithReason(ctx context.Context, sourceID, factHash, reason string) {
	s.record(ctx, sourceID, factHash, domain.AuditFailure, map[string]any{"reason": reason})
}

// record never fails the caller: storage errors are logged and dropped.
func (s *ReliabilityService) record(ctx context.Context, sourceID, factHash string, event domain.AuditEvent, extra map[string]any) {
	successes, failures := 0, 0
	if event == domain.AuditSuccess {
		successes = 1
	} else {
		failures = 1
	}

	rec, err := s.ratings.Increment(ctx, sourceID, successes, failures)
	if err != nil {
		s.logger.Error("failed to update source rating",
			zap.String("source_id", sourceID),
			zap.String("event", string(event)),
			zap.Error(err),
		)
		rec = &domain.SourceReliabilityRecord{SourceID: sourceID}
	}

	entry := &domain.AuditLogEntry{
		Timestamp: s.now().UTC(),
		SourceID:  sourceID,
		Event:     event,
		FactHash:  factHash,
		Successes: rec.Successes,
		Failures:  rec.Failures,
		Extra:     extra,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append audit entry",
			zap.String("source_id", sourceID),
			zap.String("fact_hash", factHash),
			zap.Error(err),
		)
	}

	s.logger.Debug("reliability event",
		zap.String("source_id", sourceID),
		zap.String("event", string(event)),
		zap.Int("successes", rec.Successes),
		zap.Int("failures", rec.Failures),
	)
}

func (s *ReliabilityService) counters(ctx context.Context, sourceID string) (domain.SourceReliabilityRecord, error) {
	rec, err := s.ratings.Get(ctx, sourceID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.SourceReliabilityRecord{SourceID: sourceID}, nil
	}
	if err != nil {
		return domain.SourceReliabilityRecord{SourceID: sourceID}, err
	}
	return *rec, nil
}

// BlendRating is the pure rating formula. Below maturity the baseline and
// the empirical ratio are blended with weight total/maturity.
func BlendRating(baseline float64, successes, failures, maturity int) float64 {
	total := successes + failures
	if total == 0 {
		return clampRating(baseline)
	}
	empirical := float64(successes) / float64(total) * 10
	if total >= maturity {
		return clampRating(empirical)
	}
	w := float64(total) / float64(maturity)
	return clampRating(baseline*(1-w) + empirical*w)
}

func clampRating(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}

// LearnedRating falls back to the baseline when the ledger cannot be read.
func (s *ReliabilityService) LearnedRating(ctx context.Context, sourceID string) float64 {
	rec, err := s.counters(ctx, sourceID)
	if err != nil {
		s.logger.Warn("failed to read source rating", zap.String("source_id", sourceID), zap.Error(err))
	}
	return BlendRating(s.registry.Baseline(sourceID), rec.Successes, rec.Failures, s.Maturity)
}

// ReliabilityScore weighs a source's learned rating by the oracle confidence
// of one claim. It only breaks wording ties.
func (s *ReliabilityService) ReliabilityScore(ctx context.Context, sourceID string, confidence int) float64 {
	return s.LearnedRating(ctx, sourceID) * float64(confidence) / 100
}

// DisplayRating renders "9.6*" with no data, "8.5* (3/4)" below maturity and
// "9.4 (47/50)" once mature.
func (s *ReliabilityService) DisplayRating(ctx context.Context, sourceID string) string {
	rec, err := s.counters(ctx, sourceID)
	if err != nil {
		s.logger.Warn("failed to read source rating", zap.String("source_id", sourceID), zap.Error(err))
	}
	baseline := s.registry.Baseline(sourceID)
	total := rec.Total()
	if total == 0 {
		return fmt.Sprintf("%.1f*", clampRating(baseline))
	}
	rating := BlendRating(baseline, rec.Successes, rec.Failures, s.Maturity)
	if total < s.Maturity {
		return fmt.Sprintf("%.1f* (%d/%d)", rating, rec.Successes, total)
	}
	return fmt.Sprintf("%.1f (%d/%d)", rating, rec.Successes, total)
}

// BiasScore maps a bias in [-2,2] onto [0,10] with 10 meaning neutral.
func BiasScore(bias float64) float64 {
	return clampRating(10 - math.Abs(bias)*5)
}

// CompactScores is the "accuracy|bias" pair shown in attribution.
func (s *ReliabilityService) CompactScores(ctx context.Context, sourceID string) string {
	display := s.DisplayRating(ctx, sourceID)
	accuracy := display
	for i, r := range display {
		if r == ' ' {
			accuracy = display[:i]
			break
		}
	}
	return fmt.Sprintf("%s|%.1f", accuracy, BiasScore(s.registry.Bias(sourceID)))
}

type SourceHealth struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Owner     string  `json:"owner"`
	Baseline  float64 `json:"baseline"`
	Learned   float64 `json:"learned"`
	Display   string  `json:"display"`
	Compact   string  `json:"compact"`
	Successes int     `json:"successes"`
	Failures  int     `json:"failures"`
	Disabled  bool    `json:"disabled,omitempty"`
}

// Sources reports the ledger state of every registered source.
func (s *ReliabilityService) Sources(ctx context.Context) []SourceHealth {
	sources := s.registry.Sources()
	out := make([]SourceHealth, 0, len(sources))
	for _, src := range sources {
		rec, err := s.counters(ctx, src.ID)
		if err != nil {
			s.logger.Warn("failed to read source rating", zap.String("source_id", src.ID), zap.Error(err))
		}
		out = append(out, SourceHealth{
			ID:        src.ID,
			Name:      src.Name,
			Owner:     src.Owner,
			Baseline:  src.Accuracy,
			Learned:   BlendRating(src.Accuracy, rec.Successes, rec.Failures, s.Maturity),
			Display:   s.DisplayRating(ctx, src.ID),
			Compact:   s.CompactScores(ctx, src.ID),
			Successes: rec.Successes,
			Failures:  rec.Failures,
			Disabled:  src.Disabled,
		})
	}
	return out
}
