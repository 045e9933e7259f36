package api

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"gpt-helper/config"
	"gpt-helper/gateway"
	"gpt-helper/overlay"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// copyCloseDelay lets the user see the copy confirmation before the panel
// closes itself.
const copyCloseDelay = 500 * time.Millisecond

// wsRequest is the envelope for page-to-process messages; Action is the
// discriminator.
type wsRequest struct {
	Action   string       `json:"action"`
	Text     string       `json:"text,omitempty"`
	URL      string       `json:"url,omitempty"`
	PromptID int          `json:"promptId,omitempty"`
	Prompt   string       `json:"prompt,omitempty"`
	Message  string       `json:"message,omitempty"`
	Context  *chatContext `json:"context,omitempty"`
}

type chatContext struct {
	OriginalText string `json:"originalText"`
	ResultText   string `json:"resultText"`
}

type wsResponse struct {
	Action  string `json:"action"`
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Text    string `json:"text,omitempty"`
}

// handleWS is the relay between one tab's page context and this process.
// Requests are read and handled one at a time, so follow-ups are processed
// and acknowledged strictly in submission order.
func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	tab := chi.URLParam(r, "tab")
	if tab == "" {
		http.Error(w, "missing tab id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("WS upgrade failed", "tab", tab, "err", err)
		return
	}
	defer conn.Close()

	// gorilla/websocket forbids concurrent writes, so serialise them.
	var writeMu sync.Mutex
	respond := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	events := make(chan overlay.Event, 256)
	kick := h.overlays.Attach(tab, events) // kicks any prior client for this tab
	defer h.overlays.Detach(tab, events)   // closes events + clears if still owner

	// Settings edited elsewhere reach an open panel through the store's
	// subscription, not by polling.
	unsubscribe := h.cfg.Subscribe(func(config.Settings) {
		_ = respond(wsResponse{Action: "config_changed"})
	})
	defer unsubscribe()

	// Pump render events to the page. Exits when Detach closes events.
	go func() {
		for ev := range events {
			if err := respond(ev); err != nil {
				return
			}
		}
	}()

	// Close the connection when displaced so ReadJSON unblocks immediately.
	connDone := make(chan struct{})
	go func() {
		select {
		case <-kick:
			conn.Close()
		case <-connDone:
		}
	}()
	defer close(connDone)

	// The latest passive selection report, used when a menu trigger arrives
	// without its own text.
	var lastSelection string

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		switch req.Action {
		case "text_selected":
			// Fire-and-forget broadcast from the page; no response.
			lastSelection = strings.TrimSpace(req.Text)

		case "analyze_text":
			h.handleAnalyze(r, respond, tab, req, lastSelection)

		case "chat":
			h.handleChat(r, respond, tab, req)

		case "copy":
			h.handleCopy(respond, tab)

		case "close":
			h.overlays.Close(tab)
			_ = respond(wsResponse{Action: "close", Success: true})

		case "reloadConfig":
			h.cfg.Reload()
			_ = respond(wsResponse{Action: "reloadConfig", Success: true})

		default:
			_ = respond(wsResponse{Action: req.Action, Error: "unknown action"})
		}
	}
}

// handleAnalyze serves a menu trigger: open (or reuse) the panel, run the
// instruction against the selected text, and render the outcome.
func (h *handler) handleAnalyze(r *http.Request, respond func(any) error, tab string, req wsRequest, lastSelection string) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = lastSelection
	}

	instruction := req.Prompt // prompt-on-the-fly carries its own text
	if instruction == "" {
		p, ok := h.cfg.PromptByID(req.PromptID)
		if !ok {
			_ = respond(wsResponse{Action: "analyze_text", Error: "unknown prompt"})
			return
		}
		instruction = p.Template
	}

	// The panel appears immediately on trigger, before validation, so the
	// user sees where feedback will land.
	sess, _ := h.overlays.OpenOrGet(tab, "", "")

	settings := h.cfg.Get()
	if text == "" {
		_ = respond(wsResponse{Action: "notice", Message: "No text selected"})
		return
	}
	if settings.APIKey == "" || settings.SelectedModel == "" {
		_ = respond(wsResponse{
			Action:  "notice",
			Message: "Please configure your API key and select a model in the settings.",
		})
		return
	}

	if err := sess.BeginTurn(text); err != nil {
		_ = respond(wsResponse{Action: "analyze_text", Error: err.Error()})
		return
	}
	reply, err := h.gw.Generate(r.Context(), instruction, text, settings)
	sess.FinishTurn(reply, err)
	if err != nil {
		_ = respond(wsResponse{Action: "analyze_text", Error: err.Error()})
		return
	}
	_ = respond(wsResponse{Action: "analyze_text", Success: true, Message: reply})
}

// handleChat serves a follow-up typed in the panel: one gateway round-trip,
// then the exchange is appended to the tab's history buffer.
func (h *handler) handleChat(r *http.Request, respond func(any) error, tab string, req wsRequest) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		_ = respond(wsResponse{Action: "chat", Error: "empty message"})
		return
	}

	sess, _ := h.overlays.OpenOrGet(tab, "", "")
	if err := sess.BeginTurn(message); err != nil {
		_ = respond(wsResponse{Action: "chat", Error: err.Error()})
		return
	}

	var cc gateway.ConverseContext
	if req.Context != nil {
		cc.OriginalText = req.Context.OriginalText
		cc.PriorResponse = req.Context.ResultText
	}

	buf := h.hist.Buffer(tab)
	reply, err := h.gw.Converse(r.Context(), buf.All(), message, cc, h.cfg.Get())
	sess.FinishTurn(reply, err)
	if err != nil {
		_ = respond(wsResponse{Action: "chat", Error: err.Error()})
		return
	}

	buf.AppendExchange(message, reply)
	if saveErr := h.hist.Save(tab); saveErr != nil {
		// History persistence degrades to memory only.
		log.Warn("chat history save failed", "tab", tab, "err", saveErr)
	}
	_ = respond(wsResponse{Action: "chat", Message: reply})
}

// handleCopy returns the newest assistant reply and schedules the panel to
// close shortly after, once the user has seen the confirmation. With no
// assistant turn yet it is a safe no-op.
func (h *handler) handleCopy(respond func(any) error, tab string) {
	sess, ok := h.overlays.Get(tab)
	if ok {
		if text, copied := sess.CopyLastReply(); copied {
			_ = respond(wsResponse{Action: "copy", Success: true, Text: text})
			time.AfterFunc(copyCloseDelay, func() { h.overlays.Close(tab) })
			return
		}
	}
	_ = respond(wsResponse{Action: "copy", Success: false})
}

// isValidation reports whether err is a pre-network validation failure.
func isValidation(err error) bool {
	var ve *gateway.ValidationError
	return errors.As(err, &ve)
}
