package overlay

import (
	"sync"

	"github.com/google/uuid"

	"gpt-helper/history"
)

// Manager is the registry of live chat panels, one per tab at most, plus
// the per-tab event channel render instructions are pushed through.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	clients  map[string]*client
}

type client struct {
	ch   chan Event
	kick chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		clients:  make(map[string]*client),
	}
}

// OpenOrGet returns the tab's live session, creating one only when absent.
// A repeated trigger reuses the existing panel and appends the new turns to
// it; a fresh panel starts with just the turns passed in. The returned bool
// reports whether a new session was created.
func (m *Manager) OpenOrGet(tab, initialUserText, initialAssistantText string) (*Session, bool) {
	m.mu.Lock()
	if s, ok := m.sessions[tab]; ok {
		m.mu.Unlock()
		if initialUserText != "" {
			s.Append(history.RoleUser, initialUserText)
			if initialAssistantText != "" {
				s.Append(history.RoleAssistant, initialAssistantText)
			}
		}
		return s, false
	}

	s := &Session{
		ID:   uuid.New().String(),
		Tab:  tab,
		emit: func(ev Event) { m.push(tab, ev) },
	}
	if initialUserText != "" {
		s.turns = append(s.turns, history.Turn{Role: history.RoleUser, Content: initialUserText})
		if initialAssistantText != "" {
			s.turns = append(s.turns, history.Turn{Role: history.RoleAssistant, Content: initialAssistantText})
		}
	}
	m.sessions[tab] = s
	m.mu.Unlock()

	m.push(tab, Event{Action: EventOpen, Turns: s.Turns()})
	return s, true
}

// Get returns the tab's live session, if any.
func (m *Manager) Get(tab string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[tab]
	return s, ok
}

// Close destroys the tab's session. The next trigger starts a fresh one
// with an empty panel. Closing an absent session is a no-op.
func (m *Manager) Close(tab string) {
	m.mu.Lock()
	s, ok := m.sessions[tab]
	if ok {
		delete(m.sessions, tab)
	}
	m.mu.Unlock()

	if ok {
		s.close()
	}
}

// Attach registers ch to receive the tab's render events. A previously
// attached client is kicked: its kick channel is closed so the connection
// handler can detect the displacement. Returns this client's own kick
// channel.
func (m *Manager) Attach(tab string, ch chan Event) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.clients[tab]; ok {
		close(prev.kick)
	}
	kick := make(chan struct{})
	m.clients[tab] = &client{ch: ch, kick: kick}
	return kick
}

// Detach removes ch if it is still the tab's current client (a displaced
// connection must not clear a newer one) and always closes it so the pump
// goroutine exits.
func (m *Manager) Detach(tab string, ch chan Event) {
	m.mu.Lock()
	if cur, ok := m.clients[tab]; ok && cur.ch == ch {
		delete(m.clients, tab)
	}
	m.mu.Unlock()
	close(ch)
}

// push delivers an event to the tab's client without blocking; a slow or
// absent client just misses the event. The send happens under the read lock
// so Detach cannot close the channel mid-send.
func (m *Manager) push(tab string, ev Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cur, ok := m.clients[tab]
	if !ok {
		return
	}
	select {
	case cur.ch <- ev:
	default:
	}
}
