package config

import (
	"fmt"
	"strings"
)

// DefaultModel is used until the user picks one explicitly.
const DefaultModel = "gemini-2.0-flash"

// Prompt is a reusable instruction template shown in the selection menu.
// Menu position follows slice order, so order is significant.
type Prompt struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Template string `json:"prompt"`
}

// Settings is the full persistent state.
type Settings struct {
	APIKey        string   `json:"apiKey"`
	SelectedModel string   `json:"selectedModel"`
	Prompts       []Prompt `json:"customPrompts"`
}

// ValidatePrompts applies the strict save policy: every preset needs a
// positive unique ID, a non-empty name and a non-empty template.
func ValidatePrompts(prompts []Prompt) error {
	seen := make(map[int]bool, len(prompts))
	for _, p := range prompts {
		if p.ID <= 0 {
			return fmt.Errorf("prompt %q: invalid id %d", p.Name, p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate prompt id %d", p.ID)
		}
		seen[p.ID] = true
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("prompt %d: empty name", p.ID)
		}
		if strings.TrimSpace(p.Template) == "" {
			return fmt.Errorf("prompt %d: empty template", p.ID)
		}
	}
	return nil
}

func defaultSettings() Settings {
	return Settings{SelectedModel: DefaultModel, Prompts: []Prompt{}}
}

func copySettings(s Settings) Settings {
	prompts := make([]Prompt, len(s.Prompts))
	copy(prompts, s.Prompts)
	s.Prompts = prompts
	return s
}
