package overlay

import (
	"errors"
	"sync"

	"gpt-helper/history"
)

var (
	// ErrBusy means a follow-up was submitted while one is still outstanding.
	// Sends are serialized by the caller; this guards a misbehaving client.
	ErrBusy = errors.New("a request is already in progress")
	// ErrClosed means the panel was closed before the operation ran.
	ErrClosed = errors.New("chat panel is closed")
)

// Event is a render instruction pushed to the page client.
type Event struct {
	Action string         `json:"action"`
	Turns  []history.Turn `json:"turns,omitempty"`
	Role   string         `json:"role,omitempty"`
	Text   string         `json:"text,omitempty"`
	On     bool           `json:"on,omitempty"`
}

// Event actions.
const (
	EventOpen    = "overlay_open"
	EventMessage = "message"
	EventTyping  = "typing"
	EventCopyOK  = "copy_ok"
	EventClosed  = "overlay_closed"
)

// Session is the chat panel injected into one tab. At most one exists per
// tab at a time; it is created on first trigger and destroyed on close, and
// its turn list always starts empty apart from turns passed at creation.
//
// State machine: Open until Close, with an Idle/Awaiting sub-state while a
// follow-up is in flight (pending drives the typing indicator).
type Session struct {
	ID  string
	Tab string

	mu      sync.Mutex
	closed  bool
	pending bool
	turns   []history.Turn
	emit    func(Event)
}

// Turns returns a copy of the rendered message list.
func (s *Session) Turns() []history.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]history.Turn, len(s.turns))
	copy(cp, s.turns)
	return cp
}

// Pending reports whether a follow-up is awaiting its reply.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Append adds a turn to the panel and pushes it to the client.
func (s *Session) Append(role, text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.turns = append(s.turns, history.Turn{Role: role, Content: text})
	s.mu.Unlock()
	s.emit(Event{Action: EventMessage, Role: role, Text: text})
}

// BeginTurn enters Awaiting: the user turn is rendered and the typing
// indicator comes on. Input stays editable; only a second concurrent send
// is refused.
func (s *Session) BeginTurn(text string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.pending {
		s.mu.Unlock()
		return ErrBusy
	}
	s.pending = true
	s.turns = append(s.turns, history.Turn{Role: history.RoleUser, Content: text})
	s.mu.Unlock()

	s.emit(Event{Action: EventMessage, Role: history.RoleUser, Text: text})
	s.emit(Event{Action: EventTyping, On: true})
	return nil
}

// FinishTurn leaves Awaiting: the typing indicator goes off and either the
// assistant reply or an inline error turn is appended. A failed turn does
// not terminate the session. If the panel closed while the request was in
// flight the result is discarded as a no-op.
func (s *Session) FinishTurn(reply string, failure error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = false
	text := reply
	if failure != nil {
		text = "Error: " + failure.Error()
	}
	s.turns = append(s.turns, history.Turn{Role: history.RoleAssistant, Content: text})
	s.mu.Unlock()

	s.emit(Event{Action: EventTyping, On: false})
	s.emit(Event{Action: EventMessage, Role: history.RoleAssistant, Text: text})
}

// CopyLastReply returns the newest assistant turn. When none exists yet it
// reports ok=false and nothing happens.
func (s *Session) CopyLastReply() (string, bool) {
	s.mu.Lock()
	var text string
	found := false
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Role == history.RoleAssistant {
			text = s.turns[i].Content
			found = true
			break
		}
	}
	closed := s.closed
	s.mu.Unlock()

	if !found || closed {
		return "", false
	}
	s.emit(Event{Action: EventCopyOK, Text: text})
	return text, true
}

// close marks the session dead and notifies the client. Called by the
// Manager, which also drops it from the registry.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.emit(Event{Action: EventClosed})
}
