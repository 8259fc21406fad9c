package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"wan_failover/internal/logger"
	"wan_failover/internal/models"
)

// Store is the durable record shared by the monitor loop and the control
// gateway. Mutate applies an atomic read-modify-write under an exclusive
// lock; neither caller can lose an update to the other.
type Store interface {
	Load() (models.MonitorState, error)
	Mutate(fn func(*models.MonitorState)) (models.MonitorState, error)
}

// FileStore persists the record as a single JSON document. Writes go to a
// temporary file in the same directory followed by a rename, so a crash
// mid-write never leaves a truncated record behind.
type FileStore struct {
	path string
	mu   sync.Mutex
	log  *logger.Logger
}

func NewFileStore(path string, log *logger.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// Load returns the persisted state. A missing or unparsable file yields the
// default state; corruption is logged as a warning, never an error.
func (s *FileStore) Load() (models.MonitorState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(), nil
}

// Mutate applies fn to the current state and persists the result, all under
// the store lock. The returned state is the persisted one.
func (s *FileStore) Mutate(fn func(*models.MonitorState)) (models.MonitorState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.read()
	fn(&st)
	if err := s.write(st); err != nil {
		return st, fmt.Errorf("persist state: %w", err)
	}
	return st, nil
}

// read loads and parses the state file. Callers must hold s.mu.
func (s *FileStore) read() models.MonitorState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && s.log != nil {
			s.log.Warnw("state file unreadable, using defaults", "path", s.path, "err", err)
		}
		return models.DefaultState()
	}

	var st models.MonitorState
	if err := json.Unmarshal(data, &st); err != nil {
		if s.log != nil {
			s.log.Warnw("state file corrupt, using defaults", "path", s.path, "err", err)
		}
		return models.DefaultState()
	}
	if !models.ValidMode(st.Mode) {
		if s.log != nil {
			s.log.Warnw("state file has unknown mode, using defaults", "mode", st.Mode)
		}
		return models.DefaultState()
	}
	return st
}

// write persists st via temp-file-then-rename. Callers must hold s.mu.
func (s *FileStore) write(st models.MonitorState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
