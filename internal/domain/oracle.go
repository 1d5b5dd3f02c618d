package domain

import "context"

// Contradiction is the oracle verdict on a fact against a numbered list.
// Index is 0-based into the list, or -1 when the oracle did not say which.
type Contradiction struct {
	Contradicts bool       `json:"contradiction"`
	Index       int        `json:"index"`
	Reason      string     `json:"reason"`
	Retract     bool       `json:"retract"`
	Provenance  Provenance `json:"provenance"`
}

// Oracle is the external semantic service. Its answers are advisory.
type Oracle interface {
	Extract(ctx context.Context, headline string) (ExtractedFact, error)
	// SameEvent returns 0-based indices of candidates describing the same event.
	SameEvent(ctx context.Context, fact string, candidates []string) ([]int, error)
	IsSameEvent(ctx context.Context, fact string, published []string) (bool, error)
	Contradicts(ctx context.Context, fact string, others []string) (Contradiction, error)
	// ExtractDelta returns the new information in newFact, or ok=false when there is none.
	ExtractDelta(ctx context.Context, newFact, existingFact string) (delta string, ok bool, err error)
}
