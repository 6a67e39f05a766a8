// Package cas keeps restore records in a flat JSON file between pipeline steps.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.StateStore = (*Store)(nil)

// Store implements ports.StateStore using a flat JSON file keyed by primary key.
type Store struct {
	path    string
	mu      sync.RWMutex
	records map[string]domain.RestoreRecord
}

// NewStore creates a new StateStore backed by the file at the given path.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:    filepath.Clean(path),
		records: make(map[string]domain.RestoreRecord),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to read state file"), "path", s.path)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to unmarshal state file"), "path", s.path)
	}
	if s.records == nil {
		s.records = make(map[string]domain.RestoreRecord)
	}

	return nil
}

// save writes the records atomically; callers hold the write lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal state file")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.Wrap(err, "failed to create directory for state file")
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temporary state file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Already renamed on success

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write state file")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to write state file")
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return zerr.Wrap(err, "failed to replace state file")
	}
	return nil
}

// Get retrieves the record for the given primary key.
func (s *Store) Get(primary string) (*domain.RestoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[primary]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Put stores the record and persists the file.
func (s *Store) Put(record domain.RestoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.Primary] = record
	return s.save()
}
