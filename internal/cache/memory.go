// Package cache holds the per-epoch idempotency caches: processed headline
// hashes and extraction results.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/Harshitk-cp/factline/internal/domain"
)

type epochEntries struct {
	Processed   map[string]bool                 `json:"processed"`
	Extractions map[string]domain.ExtractedFact `json:"extractions"`
}

// Memory is an in-process cache. With a non-empty path every mutation is
// written through to a JSON file so a restart within the same epoch does not
// re-process headlines.
type Memory struct {
	mu     sync.Mutex
	path   string
	epochs map[string]*epochEntries
}

var _ domain.HeadlineCache = (*Memory)(nil)

func NewMemory(path string) (*Memory, error) {
	m := &Memory{path: path, epochs: make(map[string]*epochEntries)}
	if path == "" {
		return m, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &m.epochs); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", path, err)
	}
	return m, nil
}

func (m *Memory) entries(epoch string) *epochEntries {
	e, ok := m.epochs[epoch]
	if !ok {
		e = &epochEntries{}
		m.epochs[epoch] = e
	}
	if e.Processed == nil {
		e.Processed = make(map[string]bool)
	}
	if e.Extractions == nil {
		e.Extractions = make(map[string]domain.ExtractedFact)
	}
	return e
}

func (m *Memory) flush() error {
	if m.path == "" {
		return nil
	}
	data, err := json.Marshal(m.epochs)
	if err != nil {
		return err
	}
	return renameio.WriteFile(m.path, data, 0o644)
}

func (m *Memory) SeenHeadline(_ context.Context, epoch, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries(epoch).Processed[hash], nil
}

func (m *Memory) MarkHeadline(_ context.Context, epoch, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries(epoch).Processed[hash] = true
	return m.flush()
}

func (m *Memory) GetExtraction(_ context.Context, epoch, hash string) (domain.ExtractedFact, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.entries(epoch).Extractions[hash]
	return f, ok, nil
}

func (m *Memory) PutExtraction(_ context.Context, epoch, hash string, f domain.ExtractedFact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries(epoch).Extractions[hash] = f
	return m.flush()
}

func (m *Memory) Reset(_ context.Context, epoch string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.epochs {
		if k != epoch {
			delete(m.epochs, k)
		}
	}
	return m.flush()
}
