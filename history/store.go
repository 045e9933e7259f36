package history

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Store keeps one Buffer per tab, backed by small local JSON files so a
// conversation survives the chat panel being closed and reopened. Load
// failures degrade to an empty buffer rather than propagating.
type Store struct {
	mu      sync.Mutex
	dir     string
	buffers map[string]*Buffer
}

type historyFile struct {
	ChatHistory []Turn `json:"chatHistory"`
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, buffers: make(map[string]*Buffer)}
}

// Buffer returns the buffer for tab, loading it from disk on first access.
func (s *Store) Buffer(tab string) *Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.buffers[tab]; ok {
		return b
	}

	b := &Buffer{}
	data, err := os.ReadFile(s.path(tab))
	if err == nil {
		var f historyFile
		if jsonErr := json.Unmarshal(data, &f); jsonErr == nil {
			b.restore(f.ChatHistory)
		} else {
			log.Warn("chat history corrupt, starting empty", "tab", tab, "err", jsonErr)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Warn("chat history read failed, starting empty", "tab", tab, "err", err)
	}

	s.buffers[tab] = b
	return b
}

// Save persists the tab's buffer with a temp-file-and-rename write.
func (s *Store) Save(tab string) error {
	b := s.Buffer(tab)

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(historyFile{ChatHistory: b.All()}, "", "  ")
	if err != nil {
		return err
	}
	path := s.path(tab)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Clear empties the tab's buffer and removes its file.
func (s *Store) Clear(tab string) error {
	s.Buffer(tab).Clear()
	err := os.Remove(s.path(tab))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Store) path(tab string) string {
	return filepath.Join(s.dir, sanitize(tab)+".json")
}

// sanitize maps a tab identifier to a safe file name.
func sanitize(tab string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, tab)
}
