package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"gpt-helper/config"
)

func (h *handler) getAPIKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"apiKey": h.cfg.Get().APIKey})
}

func (h *handler) putAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.cfg.Update(func(s *config.Settings) { s.APIKey = req.APIKey })
	if err != nil {
		// Explicit saves surface failures, unlike fail-soft reads.
		log.Error("API key save failed", "err", err)
		http.Error(w, "failed to save API key", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) getModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"model": h.cfg.Get().SelectedModel})
}

func (h *handler) putModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Model == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.cfg.Update(func(s *config.Settings) { s.SelectedModel = req.Model })
	if err != nil {
		log.Error("model save failed", "err", err)
		http.Error(w, "failed to save model", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) listModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.gw.ListModels(r.Context(), h.cfg.Get())
	if err != nil {
		status := http.StatusBadGateway
		if isValidation(err) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"models": models})
}

func (h *handler) exportSettings(w http.ResponseWriter, r *http.Request) {
	doc := h.cfg.Export(time.Now())
	w.Header().Set("Content-Disposition", `attachment; filename="gpt-helper-settings.json"`)
	writeJSON(w, http.StatusOK, doc)
}

func (h *handler) importSettings(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if err := h.cfg.Import(data); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	h.cfg.Reload()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
