package domain

import "context"

// HeadlineCache remembers, per epoch, which headlines were already processed
// and what their extraction produced. Keys are content hashes.
type HeadlineCache interface {
	SeenHeadline(ctx context.Context, epoch, hash string) (bool, error)
	MarkHeadline(ctx context.Context, epoch, hash string) error
	GetExtraction(ctx context.Context, epoch, hash string) (ExtractedFact, bool, error)
	PutExtraction(ctx context.Context, epoch, hash string, f ExtractedFact) error
	// Reset drops every entry that does not belong to epoch.
	Reset(ctx context.Context, epoch string) error
}
