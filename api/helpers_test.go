package api_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"gpt-helper/api"
	"gpt-helper/config"
	"gpt-helper/gateway"
	"gpt-helper/history"
	"gpt-helper/overlay"
)

// fakeGateway counts calls and returns canned results, so handler tests can
// verify what reached the LLM boundary without any network.
type fakeGateway struct {
	generateCalls atomic.Int64
	converseCalls atomic.Int64

	generateReply string
	generateErr   error
	converseReply string
	converseErr   error
	models        []string

	lastInstruction atomic.Value // string
	lastInput       atomic.Value // string
	lastMessage     atomic.Value // string
}

func (f *fakeGateway) Generate(_ context.Context, instruction, input string, _ config.Settings) (string, error) {
	f.generateCalls.Add(1)
	f.lastInstruction.Store(instruction)
	f.lastInput.Store(input)
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.generateReply, nil
}

func (f *fakeGateway) Converse(_ context.Context, _ []history.Turn, message string, _ gateway.ConverseContext, _ config.Settings) (string, error) {
	f.converseCalls.Add(1)
	f.lastMessage.Store(message)
	if f.converseErr != nil {
		return "", f.converseErr
	}
	return f.converseReply, nil
}

func (f *fakeGateway) ListModels(context.Context, config.Settings) ([]string, error) {
	return f.models, nil
}

type testEnv struct {
	srv      *httptest.Server
	cfg      *config.Store
	hist     *history.Store
	overlays *overlay.Manager
	gw       *fakeGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewStore(filepath.Join(dir, "settings.json"))
	hist := history.NewStore(filepath.Join(dir, "history"))
	overlays := overlay.NewManager()
	gw := &fakeGateway{}

	srv := httptest.NewServer(api.RegisterRoutes(cfg, hist, overlays, gw))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, cfg: cfg, hist: hist, overlays: overlays, gw: gw}
}

// configure seeds a valid key, model and one Translate preset.
func (e *testEnv) configure(t *testing.T) {
	t.Helper()
	err := e.cfg.Save(config.Settings{
		APIKey:        "test-key",
		SelectedModel: "gemini-2.0-flash",
		Prompts: []config.Prompt{
			{ID: 1, Name: "Translate", Template: "Translate to English"},
		},
	})
	if err != nil {
		t.Fatalf("seed settings: %v", err)
	}
}
