package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/archive"
	"github.com/Harshitk-cp/factline/internal/domain"
)

const DefaultRecentWindow = 5

// SplitLookback divides the lookback window at the K most recent stories of
// epoch. Those are contradiction-block candidates for incoming facts;
// everything older is correction-eligible. Retracted stories are in neither.
func SplitLookback(stories []domain.PublishedStory, epoch string, k int) (recent, eligible []domain.PublishedStory) {
	var today []int
	for i, st := range stories {
		if st.Status != domain.StoryRetracted && st.Day == epoch {
			today = append(today, i)
		}
	}
	inRecent := make(map[int]bool, k)
	for j := len(today) - 1; j >= 0 && len(inRecent) < k; j-- {
		inRecent[today[j]] = true
	}
	for i, st := range stories {
		switch {
		case st.Status == domain.StoryRetracted:
		case inRecent[i]:
			recent = append(recent, st)
		default:
			eligible = append(eligible, st)
		}
	}
	return recent, eligible
}

func facts(stories []domain.PublishedStory) []string {
	out := make([]string, len(stories))
	for i, st := range stories {
		out[i] = st.Fact
	}
	return out
}

// CorrectionService amends older stories that a new publication
// contradicts. Records are append-only; a story can be corrected again.
type CorrectionService struct {
	stories     domain.StoryStore
	corrections domain.CorrectionStore
	oracle      domain.Oracle
	publication *PublicationService
	alerter     *Alerter
	tracker     *FailureTracker
	logger      *zap.Logger
	now         func() time.Time
}

func NewCorrectionService(stories domain.StoryStore, corrections domain.CorrectionStore, oracle domain.Oracle, publication *PublicationService, alerter *Alerter, tracker *FailureTracker, logger *zap.Logger) *CorrectionService {
	return &CorrectionService{
		stories:     stories,
		corrections: corrections,
		oracle:      oracle,
		publication: publication,
		alerter:     alerter,
		tracker:     tracker,
		logger:      logger,
		now:         time.Now,
	}
}

// Check asks whether story contradicts one of the eligible stories and
// corrects it if so. A nil record means nothing was corrected.
func (s *CorrectionService) Check(ctx context.Context, story *domain.PublishedStory, eligible []domain.PublishedStory) (*domain.CorrectionRecord, error) {
	var candidates []domain.PublishedStory
	for _, st := range eligible {
		if st.ID != story.ID && st.Status != domain.StoryRetracted {
			candidates = append(candidates, st)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	verdict, err := s.oracle.Contradicts(ctx, story.Fact, facts(candidates))
	if err != nil {
		s.tracker.Failure(ctx, ServiceOracle, err)
		return nil, nil
	}
	s.tracker.Success(ServiceOracle)
	if !verdict.Contradicts {
		return nil, nil
	}
	if verdict.Index < 0 || verdict.Index >= len(candidates) {
		s.logger.Warn("contradiction without a target, skipping",
			zap.String("story_id", story.ID),
			zap.Int("candidates", len(candidates)),
			zap.String("reason", verdict.Reason),
		)
		return nil, nil
	}

	target := candidates[verdict.Index]
	if fresh, err := s.stories.GetByID(ctx, target.ID); err == nil {
		target = *fresh
	}
	return s.apply(ctx, story, &target, verdict)
}

func (s *CorrectionService) apply(ctx context.Context, story, target *domain.PublishedStory, verdict domain.Contradiction) (*domain.CorrectionRecord, error) {
	now := s.now().UTC()
	rec := &domain.CorrectionRecord{
		ID:                uuid.New().String(),
		StoryID:           target.ID,
		Timestamp:         now,
		Type:              domain.CorrectionTypeCorrection,
		OriginalFact:      target.Fact,
		CorrectedFact:     story.Fact,
		Reason:            verdict.Reason,
		CorrectingSources: story.SourceNames(),
	}
	if verdict.Retract {
		rec.Type = domain.CorrectionTypeRetraction
		rec.CorrectedFact = ""
	}

	target.OriginalFact = target.Fact
	if verdict.Retract {
		target.Status = domain.StoryRetracted
	} else {
		target.Status = domain.StoryCorrected
		target.Fact = story.Fact
	}
	target.Correction = rec
	target.UpdatedAt = now

	if err := s.corrections.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append correction for %s: %w", target.ID, err)
	}
	if audio := s.publication.speak(ctx, announcement(rec)); audio != "" {
		target.AudioRef = audio
	}
	if err := s.stories.Update(ctx, target); err != nil {
		return rec, fmt.Errorf("update corrected story %s: %w", target.ID, err)
	}

	s.logger.Info("story corrected",
		zap.String("story_id", target.ID),
		zap.String("type", string(rec.Type)),
		zap.String("by", story.ID),
		zap.String("reason", rec.Reason),
	)
	s.alerter.Alert(ctx, domain.AlertContradiction, fmt.Sprintf("%s %s: %s (%s)",
		rec.Type, target.ID, archive.Preview(rec.OriginalFact, 60), rec.Reason))

	kind := domain.EventCorrected
	if rec.Type == domain.CorrectionTypeRetraction {
		kind = domain.EventRetracted
	}
	s.publication.Republish(ctx, kind, target, rec)
	return rec, nil
}

func announcement(rec *domain.CorrectionRecord) string {
	if rec.Type == domain.CorrectionTypeRetraction {
		return fmt.Sprintf("Correction: we previously reported that %s This report has been retracted.", endSentence(rec.OriginalFact))
	}
	return fmt.Sprintf("Correction: we previously reported that %s The accurate information is: %s", endSentence(rec.OriginalFact), endSentence(rec.CorrectedFact))
}
