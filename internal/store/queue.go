package store

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var queueColumns = []string{"position", "fact", "source_id", "source_name", "source_rating", "source_url", "inserted_at", "confidence"}

// QueueStore keeps the verification queue as an ordered table. Save replaces
// the whole queue in one transaction.
type QueueStore struct {
	db *pgxpool.Pool
}

var _ domain.QueueStore = (*QueueStore)(nil)

func NewQueueStore(db *pgxpool.Pool) *QueueStore {
	return &QueueStore{db: db}
}

func (s *QueueStore) Load(ctx context.Context) ([]domain.QueueEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT fact, source_id, source_name, source_rating, source_url, inserted_at, confidence
		 FROM verification_queue ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.QueueEntry
	for rows.Next() {
		var e domain.QueueEntry
		if err := rows.Scan(&e.Fact, &e.SourceID, &e.SourceName, &e.BaselineRating, &e.SourceURL, &e.InsertedAt, &e.Confidence); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *QueueStore) Save(ctx context.Context, entries []domain.QueueEntry) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM verification_queue`); err != nil {
		return err
	}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"verification_queue"}, queueColumns,
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{i, e.Fact, e.SourceID, e.SourceName, e.BaselineRating, e.SourceURL, e.InsertedAt, e.Confidence}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy queue: %w", err)
	}
	return tx.Commit(ctx)
}
