package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const storyColumns = `id, day, sequence, hash, fact, sources, attribution, audio_ref,
	published_at, updated_at, status, original_fact, correction`

type StoryStore struct {
	db *pgxpool.Pool
}

var _ domain.StoryStore = (*StoryStore)(nil)

func NewStoryStore(db *pgxpool.Pool) *StoryStore {
	return &StoryStore{db: db}
}

func storyArgs(st *domain.PublishedStory) ([]any, error) {
	sourcesJSON, err := json.Marshal(st.Sources)
	if err != nil {
		return nil, fmt.Errorf("marshal sources: %w", err)
	}
	var correctionJSON []byte
	if st.Correction != nil {
		if correctionJSON, err = json.Marshal(st.Correction); err != nil {
			return nil, fmt.Errorf("marshal correction: %w", err)
		}
	}
	return []any{
		st.ID, st.Day, st.Sequence, st.Hash, st.Fact, sourcesJSON, st.Attribution, st.AudioRef,
		st.PublishedAt, st.UpdatedAt, string(st.Status), st.OriginalFact, correctionJSON,
	}, nil
}

func (s *StoryStore) Create(ctx context.Context, st *domain.PublishedStory) error {
	args, err := storyArgs(st)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO stories (`+storyColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		args...,
	)
	return err
}

func (s *StoryStore) Update(ctx context.Context, st *domain.PublishedStory) error {
	args, err := storyArgs(st)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE stories SET day = $2, sequence = $3, hash = $4, fact = $5, sources = $6,
			attribution = $7, audio_ref = $8, published_at = $9, updated_at = $10,
			status = $11, original_fact = $12, correction = $13
		 WHERE id = $1`,
		args...,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStory(row pgx.Row) (*domain.PublishedStory, error) {
	st := &domain.PublishedStory{}
	var sourcesJSON, correctionJSON []byte
	var status string
	err := row.Scan(&st.ID, &st.Day, &st.Sequence, &st.Hash, &st.Fact, &sourcesJSON, &st.Attribution, &st.AudioRef,
		&st.PublishedAt, &st.UpdatedAt, &status, &st.OriginalFact, &correctionJSON)
	if err != nil {
		return nil, err
	}
	st.Status = domain.StoryStatus(status)
	if err := json.Unmarshal(sourcesJSON, &st.Sources); err != nil {
		return nil, fmt.Errorf("unmarshal sources of %s: %w", st.ID, err)
	}
	if len(correctionJSON) > 0 {
		st.Correction = &domain.CorrectionRecord{}
		if err := json.Unmarshal(correctionJSON, st.Correction); err != nil {
			return nil, fmt.Errorf("unmarshal correction of %s: %w", st.ID, err)
		}
	}
	return st, nil
}

func (s *StoryStore) GetByID(ctx context.Context, id string) (*domain.PublishedStory, error) {
	st, err := scanStory(s.db.QueryRow(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *StoryStore) list(ctx context.Context, query string, args ...any) ([]domain.PublishedStory, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PublishedStory
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func (s *StoryStore) ListByDay(ctx context.Context, day string) ([]domain.PublishedStory, error) {
	return s.list(ctx, `SELECT `+storyColumns+` FROM stories WHERE day = $1 ORDER BY sequence`, day)
}

func (s *StoryStore) ListSince(ctx context.Context, since time.Time) ([]domain.PublishedStory, error) {
	return s.list(ctx, `SELECT `+storyColumns+` FROM stories WHERE published_at >= $1 ORDER BY published_at, id`, since)
}

func (s *StoryStore) DeleteBefore(ctx context.Context, day string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM stories WHERE day < $1`, day)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type CorrectionStore struct {
	db *pgxpool.Pool
}

var _ domain.CorrectionStore = (*CorrectionStore)(nil)

func NewCorrectionStore(db *pgxpool.Pool) *CorrectionStore {
	return &CorrectionStore{db: db}
}

func (s *CorrectionStore) Append(ctx context.Context, c *domain.CorrectionRecord) error {
	sourcesJSON, err := json.Marshal(c.CorrectingSources)
	if err != nil {
		return fmt.Errorf("marshal correcting_sources: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO corrections (id, story_id, ts, type, original_fact, corrected_fact, reason, correcting_sources)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.StoryID, c.Timestamp, string(c.Type), c.OriginalFact, c.CorrectedFact, c.Reason, sourcesJSON,
	)
	return err
}

func (s *CorrectionStore) ListSince(ctx context.Context, since time.Time) ([]domain.CorrectionRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, story_id, ts, type, original_fact, corrected_fact, reason, correcting_sources
		 FROM corrections WHERE ts >= $1 ORDER BY ts, id`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CorrectionRecord
	for rows.Next() {
		var c domain.CorrectionRecord
		var typ string
		var sourcesJSON []byte
		if err := rows.Scan(&c.ID, &c.StoryID, &c.Timestamp, &typ, &c.OriginalFact, &c.CorrectedFact, &c.Reason, &sourcesJSON); err != nil {
			return nil, err
		}
		c.Type = domain.CorrectionType(typ)
		if err := json.Unmarshal(sourcesJSON, &c.CorrectingSources); err != nil {
			return nil, fmt.Errorf("unmarshal correcting_sources of %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
