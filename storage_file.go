package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	appName         = "catalog-auth"
	sessionFileName = "session.json"
)

// StateDir returns the XDG state directory for the client.
// Checks XDG_STATE_HOME first, falls back to ~/.local/state.
func StateDir() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".local", "state")
	}
	return filepath.Join(base, appName)
}

// FileStorage keeps all records in one JSON document on disk. Writes go to a
// temporary file that is renamed over the previous one.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

// NewFileStorage stores records in dir/session.json. An empty dir uses
// StateDir().
func NewFileStorage(dir string) *FileStorage {
	if dir == "" {
		dir = StateDir()
	}
	return &FileStorage{path: filepath.Join(dir, sessionFileName)}
}

// Path returns the location of the session document
func (s *FileStorage) Path() string {
	return s.path
}

func (s *FileStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := records[key]
	return v, ok, nil
}

func (s *FileStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		// a corrupt document is replaced rather than blocking new sessions
		records = map[string]string{}
	}
	records[key] = value
	return s.save(records)
}

func (s *FileStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		records = map[string]string{}
	}
	if _, ok := records[key]; !ok && err == nil {
		return nil
	}
	delete(records, key)
	return s.save(records)
}

func (s *FileStorage) load() (map[string]string, error) {
	records := map[string]string{}

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return records, nil
		}
		return nil, fmt.Errorf("read session file %s: %w", s.path, err)
	}

	if len(b) == 0 {
		return records, nil
	}

	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", s.path, err)
	}
	return records, nil
}

func (s *FileStorage) save(records map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	tmp, err := os.CreateTemp(dir, sessionFileName+".*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write session file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close session file: %w", err)
	}

	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod session file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
