package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gpt-helper/config"
	"gpt-helper/gateway"
	"gpt-helper/history"
	"gpt-helper/overlay"
)

// Gateway is the slice of the LLM client the handlers need; tests swap in a
// stub to count or fail calls.
type Gateway interface {
	Generate(ctx context.Context, instruction, input string, settings config.Settings) (string, error)
	Converse(ctx context.Context, turns []history.Turn, message string, cc gateway.ConverseContext, settings config.Settings) (string, error)
	ListModels(ctx context.Context, settings config.Settings) ([]string, error)
}

func RegisterRoutes(cfg *config.Store, hist *history.Store, overlays *overlay.Manager, gw Gateway) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &handler{cfg: cfg, hist: hist, overlays: overlays, gw: gw}

	// Settings REST surface (the options UI).
	r.Get("/api/settings/apikey", h.getAPIKey)
	r.Put("/api/settings/apikey", h.putAPIKey)
	r.Get("/api/settings/model", h.getModel)
	r.Put("/api/settings/model", h.putModel)
	r.Get("/api/models", h.listModels)
	r.Get("/api/prompts", h.getPrompts)
	r.Put("/api/prompts", h.putPrompts)
	r.Get("/api/settings/export", h.exportSettings)
	r.Post("/api/settings/import", h.importSettings)
	r.Post("/api/config/reload", h.reloadConfig)

	// Per-tab relay between the page context and this process.
	r.Get("/api/tabs/{tab}/ws", h.handleWS)

	return r
}

type handler struct {
	cfg      *config.Store
	hist     *history.Store
	overlays *overlay.Manager
	gw       Gateway
}
