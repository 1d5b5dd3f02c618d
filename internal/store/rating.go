package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RatingStore struct {
	db *pgxpool.Pool
}

var _ domain.RatingStore = (*RatingStore)(nil)

func NewRatingStore(db *pgxpool.Pool) *RatingStore {
	return &RatingStore{db: db}
}

func (s *RatingStore) Get(ctx context.Context, sourceID string) (*domain.SourceReliabilityRecord, error) {
	r := &domain.SourceReliabilityRecord{}
	err := s.db.QueryRow(ctx,
		`SELECT source_id, successes, failures, updated_at
		 FROM source_ratings WHERE source_id = $1`,
		sourceID,
	).Scan(&r.SourceID, &r.Successes, &r.Failures, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *RatingStore) Increment(ctx context.Context, sourceID string, successes, failures int) (*domain.SourceReliabilityRecord, error) {
	r := &domain.SourceReliabilityRecord{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO source_ratings (source_id, successes, failures, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (source_id) DO UPDATE SET
			successes = source_ratings.successes + EXCLUDED.successes,
			failures = source_ratings.failures + EXCLUDED.failures,
			updated_at = now()
		 RETURNING source_id, successes, failures, updated_at`,
		sourceID, successes, failures,
	).Scan(&r.SourceID, &r.Successes, &r.Failures, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RatingStore) List(ctx context.Context) ([]domain.SourceReliabilityRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT source_id, successes, failures, updated_at
		 FROM source_ratings ORDER BY source_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SourceReliabilityRecord
	for rows.Next() {
		var r domain.SourceReliabilityRecord
		if err := rows.Scan(&r.SourceID, &r.Successes, &r.Failures, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type AuditStore struct {
	db *pgxpool.Pool
}

var _ domain.AuditStore = (*AuditStore)(nil)

func NewAuditStore(db *pgxpool.Pool) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Append(ctx context.Context, e *domain.AuditLogEntry) error {
	var extraJSON []byte
	if len(e.Extra) > 0 {
		var err error
		if extraJSON, err = json.Marshal(e.Extra); err != nil {
			return fmt.Errorf("marshal extra: %w", err)
		}
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO rating_audit (ts, source_id, event, fact_hash, successes, failures, extra)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.Timestamp, e.SourceID, string(e.Event), e.FactHash, e.Successes, e.Failures, extraJSON,
	)
	return err
}
