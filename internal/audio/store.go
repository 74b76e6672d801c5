// Package audio stores synthesized speech files and expires old ones.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store owns the directory of generated speech files. Files older than
// maxAge are removed by the sweeper; maxAge <= 0 keeps them forever.
type Store struct {
	dir    string
	maxAge time.Duration

	now func() time.Time // test hook
}

// NewStore creates the audio directory if needed.
func NewStore(dir string, maxAge time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve audio dir: %w", err)
	}
	return &Store{dir: abs, maxAge: maxAge, now: time.Now}, nil
}

// SaveSpeech writes synthesized audio to speech_<uuid>.mp3 and returns the
// file path.
func (s *Store) SaveSpeech(data []byte) (string, error) {
	name := fmt.Sprintf("speech_%s.mp3", uuid.NewString())
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write speech file: %w", err)
	}
	return path, nil
}

// Sweep removes speech files older than maxAge and returns how many were
// removed. Only files this store created are considered.
func (s *Store) Sweep() (int, error) {
	if s.maxAge <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read audio dir: %w", err)
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "speech_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// StartSweeper runs a background goroutine that periodically removes
// expired speech files until the context is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if s.maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Audio sweeper started", "dir", s.dir, "max_age", s.maxAge, "interval", interval)

		for {
			select {
			case <-ticker.C:
				removed, err := s.Sweep()
				if err != nil {
					slog.Error("Audio sweep failed", "error", err)
					continue
				}
				if removed > 0 {
					slog.Info("Removed expired speech files", "count", removed)
				}
			case <-ctx.Done():
				slog.Info("Audio sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
