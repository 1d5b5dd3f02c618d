package service

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/fingerprint"
)

const (
	// LexicalOverlap is the share of the smaller word set two facts must
	// have in common before the oracle is asked about them.
	LexicalOverlap = 0.15
	// PublishedOverlap is the raw-word overlap above which a fact is a late
	// detail candidate for a story already published today.
	PublishedOverlap = 0.3
	minWordLen       = 3
)

func contentWords(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.TrimFunc(w, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) })
		if utf8.RuneCountInString(w) >= minWordLen {
			words[w] = struct{}{}
		}
	}
	return words
}

func overlap(a, b map[string]struct{}) (shared, smaller int) {
	if len(a) > len(b) {
		a, b = b, a
	}
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	return shared, len(a)
}

// WordOverlap reports whether at least threshold of the smaller set of
// meaningful words (3+ letters) is shared.
func WordOverlap(a, b string, threshold float64) bool {
	wa, wb := contentWords(a), contentWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return false
	}
	shared, smaller := overlap(wa, wb)
	return float64(shared) >= float64(smaller)*threshold
}

// RawOverlapRatio compares every whitespace-separated word.
func RawOverlapRatio(a, b string) float64 {
	wa := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(a)) {
		wa[w] = struct{}{}
	}
	wb := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(b)) {
		wb[w] = struct{}{}
	}
	shared, smaller := overlap(wa, wb)
	if smaller == 0 {
		return 0
	}
	return float64(shared) / float64(smaller)
}

// Candidate is an incoming claim being weighed against a queued one.
type Candidate struct {
	Fact       string
	SourceID   string
	Confidence int
}

// Matcher holds the deduplication and queue matching logic. Only facts
// that pass the lexical pre-filter are sent to the oracle, in one batch.
type Matcher struct {
	oracle      domain.Oracle
	reliability *ReliabilityService
	tracker     *FailureTracker
	logger      *zap.Logger
}

func NewMatcher(oracle domain.Oracle, reliability *ReliabilityService, tracker *FailureTracker, logger *zap.Logger) *Matcher {
	return &Matcher{oracle: oracle, reliability: reliability, tracker: tracker, logger: logger}
}

// IsDuplicate reports whether fact restates a story already published
// today. Oracle errors count as not duplicate.
func (m *Matcher) IsDuplicate(ctx context.Context, fact string, today []domain.PublishedStory) bool {
	hash := fingerprint.Hash(fact)
	var candidates []string
	for _, st := range today {
		if st.Hash == hash || fingerprint.Hash(st.Fact) == hash {
			return true
		}
		if st.Status == domain.StoryRetracted {
			continue
		}
		if WordOverlap(fact, st.Fact, LexicalOverlap) {
			candidates = append(candidates, st.Fact)
		}
	}
	if len(candidates) == 0 {
		return false
	}

	dup, err := m.oracle.IsSameEvent(ctx, fact, candidates)
	if err != nil {
		m.tracker.Failure(ctx, ServiceOracle, err)
		return false
	}
	m.tracker.Success(ServiceOracle)
	return dup
}

// FindMatches returns the queued entries the oracle judged to be the same
// event, in queue order.
func (m *Matcher) FindMatches(ctx context.Context, fact string, queue []domain.QueueEntry) []domain.QueueEntry {
	var candidates []domain.QueueEntry
	for _, e := range queue {
		if WordOverlap(fact, e.Fact, LexicalOverlap) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	m.logger.Debug("lexical pre-filter", zap.Int("candidates", len(candidates)), zap.Int("queue", len(queue)))

	facts := make([]string, len(candidates))
	for i, c := range candidates {
		facts[i] = c.Fact
	}
	indices, err := m.oracle.SameEvent(ctx, fact, facts)
	if err != nil {
		m.tracker.Failure(ctx, ServiceOracle, err)
		return nil
	}
	m.tracker.Success(ServiceOracle)

	picked := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(candidates) {
			picked[i] = true
		}
	}
	var out []domain.QueueEntry
	for i, c := range candidates {
		if picked[i] {
			out = append(out, c)
		}
	}
	return out
}

// PickWording returns the wording of the more reliable claim. Ties go to
// the incoming claim.
func (m *Matcher) PickWording(ctx context.Context, incoming Candidate, queued domain.QueueEntry) string {
	in := m.reliability.ReliabilityScore(ctx, incoming.SourceID, incoming.Confidence)
	q := m.reliability.ReliabilityScore(ctx, queued.SourceID, queued.EffectiveConfidence())
	if q > in {
		m.logger.Info("preferring queued wording",
			zap.String("queued_source", queued.SourceID), zap.Float64("queued_score", q),
			zap.String("incoming_source", incoming.SourceID), zap.Float64("incoming_score", in),
		)
		return queued.Fact
	}
	return incoming.Fact
}
