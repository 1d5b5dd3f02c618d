// Package filestore persists pipeline state as JSON documents in a data
// directory. Whole-document files are replaced atomically; the audit trail
// and correction log are append-only JSON lines.
package filestore

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

const (
	ratingsFile     = "learned_ratings.json"
	auditFile       = "ratings_audit.jsonl"
	queueFile       = "queue.json"
	correctionsFile = "corrections.jsonl"
	storiesDir      = "stories"
)

// Stores bundles every file-backed store rooted at one directory.
type Stores struct {
	Ratings     *RatingStore
	Audit       *AuditStore
	Queue       *QueueStore
	Stories     *StoryStore
	Corrections *CorrectionStore
}

// Open creates dir if needed and returns the stores living in it.
func Open(dir string) (*Stores, error) {
	if err := os.MkdirAll(filepath.Join(dir, storiesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Stores{
		Ratings:     &RatingStore{path: filepath.Join(dir, ratingsFile)},
		Audit:       &AuditStore{path: filepath.Join(dir, auditFile)},
		Queue:       &QueueStore{path: filepath.Join(dir, queueFile)},
		Stories:     &StoryStore{dir: filepath.Join(dir, storiesDir)},
		Corrections: &CorrectionStore{path: filepath.Join(dir, correctionsFile)},
	}, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return renameio.WriteFile(path, data, 0o644)
}

// readJSON decodes path into v. A missing file leaves v untouched.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func appendLine(path string, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// readLines decodes every JSON line of path with fn. Undecodable lines are
// skipped so a torn final write never hides the rest of the log.
func readLines(path string, fn func([]byte) error) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		_ = fn(sc.Bytes())
	}
	return sc.Err()
}
