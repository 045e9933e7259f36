package api

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"

	"gpt-helper/config"
)

func (h *handler) getPrompts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cfg.Get().Prompts)
}

// putPrompts replaces the preset list wholesale. The submitted order is the
// menu order, so reorders arrive through the same path as edits.
func (h *handler) putPrompts(w http.ResponseWriter, r *http.Request) {
	var prompts []config.Prompt
	if err := json.NewDecoder(r.Body).Decode(&prompts); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if prompts == nil {
		prompts = []config.Prompt{}
	}

	if err := config.ValidatePrompts(prompts); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.cfg.Update(func(s *config.Settings) { s.Prompts = prompts })
	if err != nil {
		log.Error("prompt save failed", "err", err)
		http.Error(w, "failed to save prompts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.cfg.Get().Prompts)
}
