package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/archive"
	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/fingerprint"
)

const DefaultQueueTimeout = 24 * time.Hour

// Queue holds single-source claims waiting for corroboration. An entry
// leaves only by verification (Remove) or by expiry, which counts as a
// failure for its source.
type Queue struct {
	store       domain.QueueStore
	reliability *ReliabilityService
	logger      *zap.Logger

	mu      sync.RWMutex
	entries []domain.QueueEntry

	Timeout time.Duration
}

func NewQueue(store domain.QueueStore, reliability *ReliabilityService, timeout time.Duration, logger *zap.Logger) *Queue {
	if timeout <= 0 {
		timeout = DefaultQueueTimeout
	}
	return &Queue{store: store, reliability: reliability, logger: logger, Timeout: timeout}
}

func (q *Queue) Load(ctx context.Context) error {
	entries, err := q.store.Load(ctx)
	if err != nil {
		return err
	}
	q.mu.Lock()
	q.entries = entries
	q.mu.Unlock()
	return nil
}

func (q *Queue) Save(ctx context.Context) error {
	return q.store.Save(ctx, q.Entries())
}

// Insert appends e unless the same source already queued the same text.
func (q *Queue) Insert(e domain.QueueEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, existing := range q.entries {
		if existing.SameAs(e) {
			return false
		}
	}
	q.entries = append(q.entries, e)
	return true
}

func (q *Queue) Remove(e domain.QueueEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, existing := range q.entries {
		if existing.SameAs(e) {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Entries returns a copy in insertion order.
func (q *Queue) Entries() []domain.QueueEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]domain.QueueEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// Oldest returns the age of the oldest entry.
func (q *Queue) Oldest(now time.Time) time.Duration {
	q.mu.RLock()
	defer q.mu.RUnlock()
	var oldest time.Duration
	for _, e := range q.entries {
		if age := now.Sub(e.InsertedAt); age > oldest {
			oldest = age
		}
	}
	return oldest
}

// Expire removes entries older than the timeout and records exactly one
// failure for each.
func (q *Queue) Expire(ctx context.Context, now time.Time) []domain.QueueEntry {
	q.mu.Lock()
	var expired []domain.QueueEntry
	kept := q.entries[:0]
	for _, e := range q.entries {
		if now.Sub(e.InsertedAt) > q.Timeout {
			expired = append(expired, e)
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	q.mu.Unlock()

	for _, e := range expired {
		q.reliability.RecordFailureWithReason(ctx, e.SourceID, fingerprint.Hash(e.Fact), "expired unverified")
		q.logger.Info("expired from queue",
			zap.String("source_id", e.SourceID),
			zap.String("fact", archive.Preview(e.Fact, 50)),
		)
	}
	return expired
}
