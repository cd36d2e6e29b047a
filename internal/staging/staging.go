// Package staging manages the on-disk working directory for per-turn audio
// artifacts.
//
// Each captured utterance is written as a WAV file with a unique name before
// transcription. Files are removed once the turn completes unless the store
// is configured to keep them for inspection.
package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ausculto/ausculto/pkg/audio"
)

// Store stages utterance audio under a single directory.
type Store struct {
	dir           string
	keepArtifacts bool
}

// Option is a functional option for Store.
type Option func(*Store)

// WithKeepArtifacts disables cleanup of staged files after a turn completes.
// Useful for debugging transcription quality.
func WithKeepArtifacts(keep bool) Option {
	return func(s *Store) { s.keepArtifacts = keep }
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("staging: dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create dir %q: %w", dir, err)
	}

	s := &Store{dir: dir}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Dir returns the staging directory path.
func (s *Store) Dir() string {
	return s.dir
}

// StageWAV writes samples as a 16-bit mono WAV file with a unique name and
// returns its path.
func (s *Store) StageWAV(samples []int16, sampleRate int) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("speech_%s.wav", uuid.NewString()))
	if err := audio.WriteWAVFile(path, samples, sampleRate); err != nil {
		return "", fmt.Errorf("staging: write %q: %w", path, err)
	}
	return path, nil
}

// Remove deletes a staged file. It is a no-op when the store is configured
// to keep artifacts, and missing files are not an error.
func (s *Store) Remove(path string) error {
	if s.keepArtifacts {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("staging: remove %q: %w", path, err)
	}
	return nil
}

// Check verifies the staging directory is writable. It satisfies the health
// checker signature.
func (s *Store) Check() error {
	f, err := os.CreateTemp(s.dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("staging dir not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return nil
}
