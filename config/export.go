package config

import (
	"encoding/json"
	"errors"
	"time"
)

// ExportDocument is the settings backup file format.
type ExportDocument struct {
	Version   string         `json:"version"`
	Timestamp string         `json:"timestamp"`
	Settings  ExportSettings `json:"settings"`
}

// ExportSettings mirrors the persisted settings keys inside a backup.
type ExportSettings struct {
	CustomPrompts []Prompt `json:"customPrompts"`
	APIKey        string   `json:"apiKey"`
	SelectedModel string   `json:"selectedModel"`
}

const exportVersion = "1.0"

var ErrInvalidImport = errors.New("invalid settings file format")

// Export returns a backup document for the current settings.
func (s *Store) Export(now time.Time) ExportDocument {
	settings := s.Get()
	return ExportDocument{
		Version:   exportVersion,
		Timestamp: now.UTC().Format(time.RFC3339),
		Settings: ExportSettings{
			CustomPrompts: settings.Prompts,
			APIKey:        settings.APIKey,
			SelectedModel: settings.SelectedModel,
		},
	}
}

// Import parses a backup document and replaces the stored settings with its
// contents. The document must carry a settings object; anything else is
// rejected before any state changes.
func (s *Store) Import(data []byte) error {
	var raw struct {
		Settings *ExportSettings `json:"settings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrInvalidImport
	}
	if raw.Settings == nil {
		return ErrInvalidImport
	}

	prompts := raw.Settings.CustomPrompts
	if prompts == nil {
		prompts = []Prompt{}
	}
	return s.Save(Settings{
		APIKey:        raw.Settings.APIKey,
		SelectedModel: raw.Settings.SelectedModel,
		Prompts:       prompts,
	})
}
