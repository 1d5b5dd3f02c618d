package filestore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/store"
)

type ratingDoc struct {
	Successes int       `json:"successes"`
	Failures  int       `json:"failures"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingStore keeps learned counters in one JSON object keyed by source id.
type RatingStore struct {
	mu   sync.Mutex
	path string
}

var _ domain.RatingStore = (*RatingStore)(nil)

func (s *RatingStore) load() (map[string]ratingDoc, error) {
	docs := make(map[string]ratingDoc)
	if err := readJSON(s.path, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *RatingStore) Get(_ context.Context, sourceID string) (*domain.SourceReliabilityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.load()
	if err != nil {
		return nil, err
	}
	d, ok := docs[sourceID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &domain.SourceReliabilityRecord{SourceID: sourceID, Successes: d.Successes, Failures: d.Failures, UpdatedAt: d.UpdatedAt}, nil
}

func (s *RatingStore) Increment(_ context.Context, sourceID string, successes, failures int) (*domain.SourceReliabilityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.load()
	if err != nil {
		return nil, err
	}
	d := docs[sourceID]
	d.Successes += successes
	d.Failures += failures
	d.UpdatedAt = time.Now().UTC()
	docs[sourceID] = d
	if err := writeJSON(s.path, docs); err != nil {
		return nil, err
	}
	return &domain.SourceReliabilityRecord{SourceID: sourceID, Successes: d.Successes, Failures: d.Failures, UpdatedAt: d.UpdatedAt}, nil
}

func (s *RatingStore) List(_ context.Context) ([]domain.SourceReliabilityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.SourceReliabilityRecord, 0, len(docs))
	for id, d := range docs {
		out = append(out, domain.SourceReliabilityRecord{SourceID: id, Successes: d.Successes, Failures: d.Failures, UpdatedAt: d.UpdatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out, nil
}

// AuditStore appends one JSON line per learning event.
type AuditStore struct {
	mu   sync.Mutex
	path string
}

var _ domain.AuditStore = (*AuditStore)(nil)

func (s *AuditStore) Append(_ context.Context, e *domain.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLine(s.path, e)
}

// Entries reads the whole audit trail back.
func (s *AuditStore) Entries() ([]domain.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AuditLogEntry
	err := readLines(s.path, func(b []byte) error {
		var e domain.AuditLogEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	return out, err
}
