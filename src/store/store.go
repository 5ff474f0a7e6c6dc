package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"scope-z/src/settings"
)

// FileName is the settings file name used next to the executable.
const FileName = "config.json"

var (
	// ErrConfigCorrupt reports that the settings file existed but could not be parsed.
	// Load still returns usable defaults alongside it.
	ErrConfigCorrupt = errors.New("settings file is corrupt")
	// ErrPersistenceFailed reports a failed save. Callers may ignore it.
	ErrPersistenceFailed = errors.New("settings could not be saved")
)

// Store persists Settings as JSON at a fixed path. Saves are best-effort and last write wins.
type Store struct {
	path   string
	logger *slog.Logger

	mu        sync.Mutex
	lastSaved []byte
}

// New returns a store for path. A nil logger uses slog.Default().
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// DefaultPath returns config.json next to the running executable, or in the working directory
// when the executable cannot be located.
func DefaultPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return FileName
	}
	return filepath.Join(filepath.Dir(execPath), FileName)
}

func (s *Store) Path() string { return s.path }

// Load reads the settings file. It always returns usable Settings: a missing file yields defaults
// and a nil error; an unreadable or unparsable file yields defaults and an error wrapping
// ErrConfigCorrupt.
func (s *Store) Load() (settings.Settings, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("settings: no settings file, using defaults", "path", s.path)
		return settings.Default(), nil
	}
	if err != nil {
		s.logger.Warn("settings: read failed, using defaults", "path", s.path, "error", err)
		return settings.Default(), fmt.Errorf("%w: %v", ErrConfigCorrupt, err)
	}

	v, err := settings.Decode(data)
	if err != nil {
		s.logger.Warn("settings: file is corrupt, using defaults", "path", s.path, "error", err)
		return v, fmt.Errorf("%w: %v", ErrConfigCorrupt, err)
	}

	s.mu.Lock()
	s.lastSaved = data
	s.mu.Unlock()
	return v, nil
}

// Save writes v atomically (temp file then rename). Failures are logged and returned wrapping
// ErrPersistenceFailed; the caller's in-memory state is unaffected either way.
func (s *Store) Save(v settings.Settings) error {
	data, err := settings.Encode(v)
	if err != nil {
		return s.saveFailed(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeFileAtomic(s.path, data); err != nil {
		return s.saveFailed(err)
	}
	s.lastSaved = data
	s.logger.Debug("settings: saved", "path", s.path)
	return nil
}

func (s *Store) saveFailed(err error) error {
	s.logger.Warn("settings: save failed", "path", s.path, "error", err)
	return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
}

// isOwnWrite reports whether data equals what this store last wrote or read.
func (s *Store) isOwnWrite(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved != nil && bytes.Equal(s.lastSaved, data)
}

func (s *Store) remember(data []byte) {
	s.mu.Lock()
	s.lastSaved = data
	s.mu.Unlock()
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return renameWithRetry(tmpPath, path)
}

// renameWithRetry retries a few times; on Windows the rename fails while another process holds
// the target open.
func renameWithRetry(from, to string) error {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		if err = os.Rename(from, to); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt+1) * 20 * time.Millisecond)
	}
	return err
}
