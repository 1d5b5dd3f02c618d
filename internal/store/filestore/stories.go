package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/store"
)

type dayDoc struct {
	Date    string                  `json:"date"`
	Stories []domain.PublishedStory `json:"stories"`
}

// StoryStore keeps one document per publication day.
type StoryStore struct {
	mu  sync.Mutex
	dir string
}

var _ domain.StoryStore = (*StoryStore)(nil)

func (s *StoryStore) dayPath(day string) string {
	return filepath.Join(s.dir, day+".json")
}

func (s *StoryStore) loadDay(day string) (*dayDoc, error) {
	doc := &dayDoc{Date: day}
	if err := readJSON(s.dayPath(day), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *StoryStore) days() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var days []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		day := strings.TrimSuffix(name, ".json")
		if _, err := time.Parse(domain.DayLayout, day); err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Strings(days)
	return days, nil
}

func (s *StoryStore) Create(_ context.Context, st *domain.PublishedStory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadDay(st.Day)
	if err != nil {
		return err
	}
	for _, existing := range doc.Stories {
		if existing.ID == st.ID {
			return fmt.Errorf("story %s already exists", st.ID)
		}
	}
	doc.Stories = append(doc.Stories, *st)
	return writeJSON(s.dayPath(st.Day), doc)
}

func (s *StoryStore) Update(_ context.Context, st *domain.PublishedStory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadDay(st.Day)
	if err != nil {
		return err
	}
	for i := range doc.Stories {
		if doc.Stories[i].ID == st.ID {
			doc.Stories[i] = *st
			return writeJSON(s.dayPath(st.Day), doc)
		}
	}
	return store.ErrNotFound
}

func (s *StoryStore) GetByID(_ context.Context, id string) (*domain.PublishedStory, error) {
	day, ok := domain.DayOfStoryID(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadDay(day)
	if err != nil {
		return nil, err
	}
	for i := range doc.Stories {
		if doc.Stories[i].ID == id {
			st := doc.Stories[i]
			return &st, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *StoryStore) ListByDay(_ context.Context, day string) ([]domain.PublishedStory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadDay(day)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(doc.Stories, func(i, j int) bool { return doc.Stories[i].Sequence < doc.Stories[j].Sequence })
	return doc.Stories, nil
}

func (s *StoryStore) ListSince(_ context.Context, since time.Time) ([]domain.PublishedStory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	days, err := s.days()
	if err != nil {
		return nil, err
	}
	first := since.UTC().Format(domain.DayLayout)
	var out []domain.PublishedStory
	for _, day := range days {
		// day files are keyed by local epoch; allow one day of slack for zone offsets
		if day < first && !adjacent(day, first) {
			continue
		}
		doc, err := s.loadDay(day)
		if err != nil {
			return nil, err
		}
		for _, st := range doc.Stories {
			if !st.PublishedAt.Before(since) {
				out = append(out, st)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].PublishedAt.Before(out[j].PublishedAt)
	})
	return out, nil
}

func adjacent(day, first string) bool {
	d, err1 := time.Parse(domain.DayLayout, day)
	f, err2 := time.Parse(domain.DayLayout, first)
	return err1 == nil && err2 == nil && f.Sub(d) <= 24*time.Hour
}

func (s *StoryStore) DeleteBefore(_ context.Context, day string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	days, err := s.days()
	if err != nil {
		return 0, err
	}
	var removed int64
	for _, d := range days {
		if d >= day {
			break
		}
		doc, err := s.loadDay(d)
		if err != nil {
			return removed, err
		}
		if err := os.Remove(s.dayPath(d)); err != nil {
			return removed, err
		}
		removed += int64(len(doc.Stories))
	}
	return removed, nil
}

// CorrectionStore appends correction records as JSON lines. Records are
// never rewritten.
type CorrectionStore struct {
	mu   sync.Mutex
	path string
}

var _ domain.CorrectionStore = (*CorrectionStore)(nil)

func (s *CorrectionStore) Append(_ context.Context, c *domain.CorrectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLine(s.path, c)
}

func (s *CorrectionStore) ListSince(_ context.Context, since time.Time) ([]domain.CorrectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CorrectionRecord
	err := readLines(s.path, func(b []byte) error {
		var c domain.CorrectionRecord
		if err := json.Unmarshal(b, &c); err != nil {
			return err
		}
		if !c.Timestamp.Before(since) {
			out = append(out, c)
		}
		return nil
	})
	return out, err
}
