package domain

import (
	"strings"
	"time"
)

// SkipFact is returned by the oracle when a headline carries no verifiable fact.
const SkipFact = "SKIP"

// DefaultQueueConfidence is assumed for queue entries persisted without a confidence.
const DefaultQueueConfidence = 85

type Headline struct {
	Text           string    `json:"text"`
	SourceID       string    `json:"source_id"`
	SourceName     string    `json:"source_name"`
	BaselineRating float64   `json:"source_rating"`
	URL            string    `json:"url,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Provenance records which parser layer produced an oracle result.
type Provenance string

const (
	ProvenanceStrict  Provenance = "strict"
	ProvenanceRelaxed Provenance = "relaxed"
	ProvenanceRegex   Provenance = "regex"
	ProvenanceDefault Provenance = "default"
	ProvenanceCache   Provenance = "cache"
)

type ExtractedFact struct {
	Fact         string     `json:"fact"`
	Confidence   int        `json:"confidence"`
	Newsworthy   bool       `json:"newsworthy"`
	ThresholdMet string     `json:"threshold_met,omitempty"`
	Provenance   Provenance `json:"provenance,omitempty"`
}

// Skipped reports whether the extraction produced no usable fact.
func (f ExtractedFact) Skipped() bool {
	fact := strings.TrimSpace(f.Fact)
	return fact == "" || strings.EqualFold(fact, SkipFact)
}

type QueueEntry struct {
	Fact           string    `json:"fact"`
	SourceID       string    `json:"source_id"`
	SourceName     string    `json:"source_name"`
	BaselineRating float64   `json:"source_rating"`
	SourceURL      string    `json:"source_url,omitempty"`
	InsertedAt     time.Time `json:"timestamp"`
	Confidence     int       `json:"confidence,omitempty"`
}

// EffectiveConfidence falls back to DefaultQueueConfidence for legacy entries.
func (e QueueEntry) EffectiveConfidence() int {
	if e.Confidence <= 0 {
		return DefaultQueueConfidence
	}
	return e.Confidence
}

// SameAs reports whether two entries are the same queued claim.
func (e QueueEntry) SameAs(other QueueEntry) bool {
	return e.SourceID == other.SourceID && e.Fact == other.Fact
}

func NewQueueEntry(h Headline, f ExtractedFact) QueueEntry {
	inserted := h.Timestamp
	if inserted.IsZero() {
		inserted = time.Now().UTC()
	}
	return QueueEntry{
		Fact:           f.Fact,
		SourceID:       h.SourceID,
		SourceName:     h.SourceName,
		BaselineRating: h.BaselineRating,
		SourceURL:      h.URL,
		InsertedAt:     inserted,
		Confidence:     f.Confidence,
	}
}
