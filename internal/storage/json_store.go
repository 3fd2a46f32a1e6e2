// Package storage holds file-backed persistence helpers.
package storage

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Snapshot reads and writes a single JSON document on disk. Writes go to a
// temp file first and are renamed into place, so readers never see a
// partial file.
type Snapshot struct {
	mu   sync.Mutex
	path string
}

// NewSnapshot creates dataDir if needed and returns a snapshot stored at
// dataDir/filename.
func NewSnapshot(dataDir, filename string) (*Snapshot, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &Snapshot{path: filepath.Join(dataDir, filename)}, nil
}

func (s *Snapshot) Path() string { return s.path }

// Load decodes the snapshot into v. It reports false with a nil error when
// no snapshot has been written yet.
func (s *Snapshot) Load(v interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Snapshot) Save(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, s.path)
}
