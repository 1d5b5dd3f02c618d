package domain

import (
	"context"
	"time"
)

type RatingStore interface {
	Get(ctx context.Context, sourceID string) (*SourceReliabilityRecord, error)
	// Increment adds the deltas and returns the updated record, creating it lazily.
	Increment(ctx context.Context, sourceID string, successes, failures int) (*SourceReliabilityRecord, error)
	List(ctx context.Context) ([]SourceReliabilityRecord, error)
}

type AuditStore interface {
	Append(ctx context.Context, e *AuditLogEntry) error
}

type QueueStore interface {
	Load(ctx context.Context) ([]QueueEntry, error)
	Save(ctx context.Context, entries []QueueEntry) error
}

type StoryStore interface {
	Create(ctx context.Context, s *PublishedStory) error
	Update(ctx context.Context, s *PublishedStory) error
	GetByID(ctx context.Context, id string) (*PublishedStory, error)
	ListByDay(ctx context.Context, day string) ([]PublishedStory, error)
	// ListSince returns stories published at or after since, oldest first.
	ListSince(ctx context.Context, since time.Time) ([]PublishedStory, error)
	DeleteBefore(ctx context.Context, day string) (int64, error)
}

type CorrectionStore interface {
	Append(ctx context.Context, c *CorrectionRecord) error
	ListSince(ctx context.Context, since time.Time) ([]CorrectionRecord, error)
}
