package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/refreshmon/refreshmon/internal/models"
)

const (
	defaultFileName = "preferences.json"
	defaultDir      = ".config/refreshmon"
)

// GetDefaultPath returns ~/.config/refreshmon/preferences.json
func GetDefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, defaultDir, defaultFileName), nil
}

// Store owns the device preference mapping and the global alert settings.
// Every reader and writer goes through its lock. Other processes may rewrite
// the file; the store picks their version up before the next read or write.
type Store struct {
	mu       sync.RWMutex
	path     string
	prefs    map[string]int
	settings models.GlobalSettings
	logger   zerolog.Logger

	// stat describes the file as last loaded or written by this store
	stat  os.FileInfo
	dirty bool
}

// Open creates a store backed by path and loads it. An empty path selects
// the default location.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		var err error
		path, err = GetDefaultPath()
		if err != nil {
			return nil, err
		}
	}

	s := &Store{
		path:     path,
		prefs:    make(map[string]int),
		settings: models.DefaultGlobalSettings(),
		logger:   logger.With().Str("component", "prefs").Logger(),
	}
	s.Load()
	return s, nil
}

// Path returns the preference file location
func (s *Store) Path() string {
	return s.path
}

// Load reads the preference file. A missing or unparsable file is replaced by
// the defaults, which are written back immediately.
func (s *Store) Load() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return s.snapshotLocked()
}

func (s *Store) loadLocked() {
	snap, rewrite := s.read()
	s.prefs = snap.Preferences
	s.settings = snap.Settings
	s.dirty = false
	s.stat = s.statFile()

	if rewrite {
		if err := s.persistLocked(); err != nil {
			s.dirty = true
			s.logger.Error().Err(err).Str("path", s.path).Msg("failed to persist preferences")
		}
	}
}

// refreshLocked reloads the file when another writer replaced it since this
// store last loaded or wrote it. It reports whether a reload happened.
func (s *Store) refreshLocked() bool {
	current := s.statFile()
	if !fileChanged(s.stat, current) {
		return false
	}
	s.logger.Debug().Str("path", s.path).Msg("preferences file changed on disk, reloading")
	s.loadLocked()
	return true
}

func (s *Store) statFile() os.FileInfo {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil
	}
	return info
}

// fileChanged compares two stats of the preference file. Atomic writes replace
// the inode, so SameFile catches rewrites within the mtime resolution.
func fileChanged(prev, current os.FileInfo) bool {
	switch {
	case prev == nil && current == nil:
		return false
	case prev == nil || current == nil:
		return true
	}
	return !os.SameFile(prev, current) ||
		!prev.ModTime().Equal(current.ModTime()) ||
		prev.Size() != current.Size()
}

// read returns the file contents and whether the file must be rewritten
func (s *Store) read() (Snapshot, bool) {
	defaults := Snapshot{Preferences: make(map[string]int), Settings: models.DefaultGlobalSettings()}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info().Str("path", s.path).Msg("creating default preferences file")
		} else {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("cannot read preferences, using defaults")
		}
		return defaults, true
	}

	snap, normalized, err := decode(data)
	if err != nil {
		corrupt := &StoreCorruptError{Path: s.path, Err: err}
		s.logger.Warn().Err(corrupt).Msg("restoring default preferences")
		return defaults, true
	}

	if !normalized {
		s.logger.Info().Str("path", s.path).Msg("normalizing preferences file")
	}
	return snap, !normalized
}

// Save replaces the whole mapping and settings and persists them
func (s *Store) Save(preferences map[string]int, settings models.GlobalSettings) error {
	if settings.AlertThreshold <= 0 {
		return fmt.Errorf("alert threshold must be positive, got %d", settings.AlertThreshold)
	}
	for id, rate := range preferences {
		if rate <= 0 {
			return fmt.Errorf("preferred rate for %s must be positive, got %d", id, rate)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	prevPrefs, prevSettings := s.prefs, s.settings
	s.prefs = copyPreferences(preferences)
	s.settings = settings

	if err := s.persistLocked(); err != nil {
		s.prefs, s.settings = prevPrefs, prevSettings
		return err
	}
	return nil
}

// Flush writes the in-memory contents when they have not reached the disk
// yet. A file rewritten by another process wins over clean in-memory state.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	if !s.dirty {
		return nil
	}
	if err := s.persistLocked(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}


// Merge sets the preferred rate of every device in edits and persists the
// result. Nothing changes in memory when persisting fails.
func (s *Store) Merge(edits map[string]int) error {
	for id, rate := range edits {
		if rate <= 0 {
			return fmt.Errorf("preferred rate for %s must be positive, got %d", id, rate)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	prev := s.prefs
	next := copyPreferences(prev)
	for id, rate := range edits {
		next[id] = rate
	}
	s.prefs = next

	if err := s.persistLocked(); err != nil {
		s.prefs = prev
		return err
	}
	return nil
}

// SetGlobal replaces the global alert settings and persists them
func (s *Store) SetGlobal(settings models.GlobalSettings) error {
	if settings.AlertThreshold <= 0 {
		return fmt.Errorf("alert threshold must be positive, got %d", settings.AlertThreshold)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	prev := s.settings
	s.settings = settings
	if err := s.persistLocked(); err != nil {
		s.settings = prev
		return err
	}
	return nil
}

// Snapshot returns a deep copy of the current contents, reloading the file
// first when it changed on disk.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	return s.snapshotLocked()
}

// PreferredRate returns the device's entry or the global alert threshold
func (s *Store) PreferredRate(deviceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	if rate, ok := s.prefs[deviceID]; ok {
		return rate
	}
	return s.settings.AlertThreshold
}

// Settings returns the global alert settings
func (s *Store) Settings() models.GlobalSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	return s.settings
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Preferences: copyPreferences(s.prefs),
		Settings:    s.settings,
	}
}

func (s *Store) persistLocked() error {
	data, err := encode(s.snapshotLocked())
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data, 0644); err != nil {
		return errors.Wrapf(err, "save preferences to %s", s.path)
	}
	s.stat = s.statFile()
	return nil
}
