package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"gpt-helper/api"
	"gpt-helper/config"
	"gpt-helper/gateway"
	"gpt-helper/history"
	"gpt-helper/overlay"
)

func main() {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	settingsFile := os.Getenv("SETTINGS_FILE")
	if settingsFile == "" {
		settingsFile = "/data/settings.json"
	}
	historyDir := os.Getenv("HISTORY_DIR")
	if historyDir == "" {
		historyDir = "/data/history"
	}

	cfg := config.NewStore(settingsFile)
	hist := history.NewStore(historyDir)
	overlays := overlay.NewManager()
	gw := gateway.New(os.Getenv("GEMINI_BASE_URL"))

	router := api.RegisterRoutes(cfg, hist, overlays, gw)

	addr := fmt.Sprintf(":%s", port)
	log.Info("gpt-helper listening", "addr", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal("server error", "err", err)
	}
}
