package overlay_test

import (
	"testing"

	"gpt-helper/history"
	"gpt-helper/overlay"
)

func TestOpenTwiceReusesPanel(t *testing.T) {
	m := overlay.NewManager()

	first, created := m.OpenOrGet("tab-1", "selected text", "analysis")
	if !created {
		t.Fatal("expected first open to create")
	}

	second, created := m.OpenOrGet("tab-1", "more text", "")
	if created {
		t.Fatal("second open must reuse the existing panel, not recreate it")
	}
	if second.ID != first.ID {
		t.Fatalf("expected same session instance, got %s and %s", first.ID, second.ID)
	}

	// The second trigger appended its turn to the one panel.
	turns := first.Turns()
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d: %+v", len(turns), turns)
	}
	if turns[2].Content != "more text" {
		t.Fatalf("expected appended turn, got %q", turns[2].Content)
	}
}

func TestSessionsAreScopedPerTab(t *testing.T) {
	m := overlay.NewManager()
	a, _ := m.OpenOrGet("tab-1", "", "")
	b, _ := m.OpenOrGet("tab-2", "", "")
	if a.ID == b.ID {
		t.Fatal("different tabs must get different sessions")
	}
}

func TestCloseThenReopenStartsEmpty(t *testing.T) {
	m := overlay.NewManager()
	s, _ := m.OpenOrGet("tab-1", "old text", "old reply")
	m.Close("tab-1")

	fresh, created := m.OpenOrGet("tab-1", "", "")
	if !created {
		t.Fatal("expected a fresh session after close")
	}
	if fresh.ID == s.ID {
		t.Fatal("reopened session must be a new instance")
	}
	if len(fresh.Turns()) != 0 {
		t.Fatalf("reopened panel must start empty, got %+v", fresh.Turns())
	}
}

func TestCloseAbsentSessionIsNoOp(t *testing.T) {
	m := overlay.NewManager()
	m.Close("tab-1") // no panic, no error
}

func TestEventsReachAttachedClient(t *testing.T) {
	m := overlay.NewManager()
	ch := make(chan overlay.Event, 16)
	m.Attach("tab-1", ch)
	defer m.Detach("tab-1", ch)

	s, _ := m.OpenOrGet("tab-1", "hello", "")
	s.BeginTurn("follow-up")
	s.FinishTurn("reply", nil)
	m.Close("tab-1")

	var actions []string
	for len(ch) > 0 {
		actions = append(actions, (<-ch).Action)
	}
	want := []string{
		overlay.EventOpen,
		overlay.EventMessage, // follow-up user turn
		overlay.EventTyping,  // on
		overlay.EventTyping,  // off
		overlay.EventMessage, // assistant reply
		overlay.EventClosed,
	}
	if len(actions) != len(want) {
		t.Fatalf("expected %v, got %v", want, actions)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("event %d: expected %q, got %q (all: %v)", i, want[i], actions[i], actions)
		}
	}
}

func TestAttachDisplacesPriorClient(t *testing.T) {
	m := overlay.NewManager()
	first := make(chan overlay.Event, 1)
	kick := m.Attach("tab-1", first)

	second := make(chan overlay.Event, 1)
	m.Attach("tab-1", second)

	select {
	case <-kick:
	default:
		t.Fatal("expected first client's kick channel to be closed")
	}

	// Events now go to the newer client only.
	m.OpenOrGet("tab-1", "", "")
	if len(second) != 1 {
		t.Fatalf("expected event on new client, got %d", len(second))
	}
	if len(first) != 0 {
		t.Fatal("displaced client must not receive events")
	}

	// A displaced client detaching must not clear the newer one.
	m.Detach("tab-1", first)
	m.Close("tab-1")
	if len(second) == 0 {
		t.Fatal("newer client lost after displaced detach")
	}
}

func TestEventCarriesInitialTurns(t *testing.T) {
	m := overlay.NewManager()
	ch := make(chan overlay.Event, 4)
	m.Attach("tab-1", ch)
	defer m.Detach("tab-1", ch)

	m.OpenOrGet("tab-1", "Bonjour le monde", "Hello world")

	ev := <-ch
	if ev.Action != overlay.EventOpen {
		t.Fatalf("expected %s, got %s", overlay.EventOpen, ev.Action)
	}
	want := []history.Turn{
		{Role: history.RoleUser, Content: "Bonjour le monde"},
		{Role: history.RoleAssistant, Content: "Hello world"},
	}
	if len(ev.Turns) != len(want) {
		t.Fatalf("expected %d initial turns, got %d", len(want), len(ev.Turns))
	}
	for i := range want {
		if ev.Turns[i] != want[i] {
			t.Fatalf("turn %d: expected %+v, got %+v", i, want[i], ev.Turns[i])
		}
	}
}
