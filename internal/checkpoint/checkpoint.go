// Package checkpoint persists resumable job state alongside the input
// file. The snapshot is rewritten whole each time with a write-then-rename
// so a crash mid-write never corrupts the last good state.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"merchlens/internal/logging"
	"merchlens/internal/records"
)

// Suffix is appended to the input path to form the checkpoint path.
const Suffix = ".checkpoint.json"

// Snapshot is the durable state of one interrupted job.
type Snapshot struct {
	// LastProcessedRow is the highest contiguous 1-based sheet row
	// completed. Resume starts at LastProcessedRow + 1.
	LastProcessedRow int                      `json:"last_processed_row"`
	JobSettings      records.JobSettings      `json:"job_settings"`
	ProcessedRecords []records.ResolvedRecord `json:"processed_records"`
}

// Store reads and writes the checkpoint for one input file.
type Store struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store for the given input file. The checkpoint lives
// next to the input with the fixed suffix; a sibling lock file guards
// against two processes running the same job.
func NewStore(inputPath string, opts ...Option) *Store {
	path := PathFor(inputPath)
	s := &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PathFor returns the checkpoint path for an input file.
func PathFor(inputPath string) string {
	return inputPath + Suffix
}

// Path returns the checkpoint file location.
func (s *Store) Path() string {
	return s.path
}

// Acquire takes the job lock. It fails fast when another process already
// holds it rather than blocking behind a running job.
func (s *Store) Acquire() error {
	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("checkpoint: acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("checkpoint: %s is locked by another process", s.lock.Path())
	}
	return nil
}

// Release drops the job lock and removes the lock file.
func (s *Store) Release() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release checkpoint lock", logging.Error(err))
		return
	}
	_ = os.Remove(s.lock.Path())
}

// Save atomically rewrites the checkpoint.
func (s *Store) Save(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint: rename: %w", err)
	}
	s.logger.Debug("checkpoint saved",
		logging.String("path", s.path),
		logging.Int("last_processed_row", snap.LastProcessedRow),
		logging.Int("records", len(snap.ProcessedRecords)),
	)
	return nil
}

// Load returns the stored snapshot, or nil when no usable checkpoint
// exists. A checkpoint written for a different input file is ignored, and
// a corrupt file is discarded rather than crashing the resume.
func (s *Store) Load(inputPath string) (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("discarding corrupt checkpoint",
			logging.String("path", s.path),
			logging.Error(err),
		)
		return nil, nil
	}
	if snap.JobSettings.InputPath != inputPath {
		s.logger.Warn("ignoring checkpoint for different input file",
			logging.String("checkpoint_input", snap.JobSettings.InputPath),
			logging.String("current_input", inputPath),
		)
		return nil, nil
	}
	return &snap, nil
}

// Delete removes the checkpoint after a successful run. A missing file is
// not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checkpoint: delete: %w", err)
	}
	return nil
}
