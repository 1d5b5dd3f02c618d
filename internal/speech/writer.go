package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/fingerprint"
)

// CurrentFile always holds the most recent announcement.
const CurrentFile = "current.mp3"

// Writer synthesizes text and stores it under dir as audio_<hash>.mp3.
type Writer struct {
	synth  Synthesizer
	dir    string
	logger *zap.Logger
}

var _ domain.Speaker = (*Writer)(nil)

func NewWriter(synth Synthesizer, dir string, logger *zap.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &Writer{synth: synth, dir: dir, logger: logger}, nil
}

// Speak returns the audio file name relative to the audio directory.
func (w *Writer) Speak(ctx context.Context, text string) (string, error) {
	audio, err := w.synth.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}
	name := fingerprint.AudioName(text)
	if err := renameio.WriteFile(filepath.Join(w.dir, name), audio, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := renameio.WriteFile(filepath.Join(w.dir, CurrentFile), audio, 0o644); err != nil {
		w.logger.Warn("failed to update current audio", zap.Error(err))
	}
	w.logger.Debug("audio written", zap.String("file", name), zap.Int("bytes", len(audio)))
	return name, nil
}
