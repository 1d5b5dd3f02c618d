package filestore

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/factline/internal/domain"
)

type QueueStore struct {
	mu   sync.Mutex
	path string
}

var _ domain.QueueStore = (*QueueStore)(nil)

func (s *QueueStore) Load(_ context.Context) ([]domain.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []domain.QueueEntry
	if err := readJSON(s.path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *QueueStore) Save(_ context.Context, entries []domain.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entries == nil {
		entries = []domain.QueueEntry{}
	}
	return writeJSON(s.path, entries)
}
