package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// Store handles loading, saving, and observing the settings file.
//
// Reads are fail-soft: a missing or unreadable file yields defaults and a
// logged warning, never an error to the caller. Explicit saves do return
// errors so the settings UI can surface them.
type Store struct {
	mu       sync.RWMutex
	filePath string
	settings Settings
	subs     map[int]func(Settings)
	nextSub  int
}

// NewStore loads the settings from filePath, falling back to defaults on
// any read error.
func NewStore(filePath string) *Store {
	s := &Store{filePath: filePath, subs: make(map[int]func(Settings))}
	s.settings = s.read()
	return s
}

// read loads settings from disk without touching the in-memory state.
func (s *Store) read() Settings {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("settings read failed, using defaults", "path", s.filePath, "err", err)
		}
		return defaultSettings()
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		log.Warn("settings file corrupt, using defaults", "path", s.filePath, "err", err)
		return defaultSettings()
	}
	if loaded.SelectedModel == "" {
		loaded.SelectedModel = DefaultModel
	}
	if loaded.Prompts == nil {
		loaded.Prompts = []Prompt{}
	}
	return loaded
}

// Get returns a snapshot of the current settings (safe copy under RLock).
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySettings(s.settings)
}

// Save atomically writes settings to disk, updates in-memory state, then
// notifies every subscriber synchronously before returning.
func (s *Store) Save(settings Settings) error {
	if settings.Prompts == nil {
		settings.Prompts = []Prompt{}
	}

	s.mu.Lock()
	if err := s.writeAtomic(settings); err != nil {
		s.mu.Unlock()
		return err
	}
	s.settings = settings
	snapshot := copySettings(settings)
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return nil
}

// Update applies fn to a copy of the current settings and saves the result.
func (s *Store) Update(fn func(*Settings)) error {
	settings := s.Get()
	fn(&settings)
	return s.Save(settings)
}

// Reload re-reads the settings file and notifies subscribers. Used by the
// reloadConfig action after the settings UI writes through its own path.
func (s *Store) Reload() {
	loaded := s.read()

	s.mu.Lock()
	s.settings = loaded
	snapshot := copySettings(loaded)
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Subscribe registers fn to be called with the new settings after every
// successful save or reload. The returned function cancels the subscription.
func (s *Store) Subscribe(fn func(Settings)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// NextPromptID returns the next monotonic preset ID (max existing + 1).
func (s *Store) NextPromptID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, p := range s.settings.Prompts {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}

// PromptByID looks up a preset by its menu-trigger ID.
func (s *Store) PromptByID(id int) (Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.settings.Prompts {
		if p.ID == id {
			return p, true
		}
	}
	return Prompt{}, false
}

// snapshotSubs copies the subscriber list. Caller must hold mu.
func (s *Store) snapshotSubs() []func(Settings) {
	subs := make([]func(Settings), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

// writeAtomic writes to a temp file then renames it over filePath.
func (s *Store) writeAtomic(settings Settings) error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := s.filePath + ".tmp"
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}
