package history_test

import (
	"fmt"
	"testing"

	"gpt-helper/history"
)

func TestBufferCapNeverExceeded(t *testing.T) {
	b := &history.Buffer{}
	for i := 0; i < 50; i++ {
		b.AppendExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		if b.Len() > history.MaxTurns {
			t.Fatalf("after %d exchanges: len %d exceeds cap %d", i+1, b.Len(), history.MaxTurns)
		}
		if b.Len()%2 != 0 {
			t.Fatalf("after %d exchanges: odd length %d", i+1, b.Len())
		}
	}
	if b.Len() != history.MaxTurns {
		t.Fatalf("expected full buffer of %d, got %d", history.MaxTurns, b.Len())
	}
}

func TestBufferSingleTurn(t *testing.T) {
	b := &history.Buffer{}
	b.Append(history.Turn{Role: history.RoleUser, Content: "hello"})
	if b.Len() != 1 {
		t.Fatalf("expected 1 turn, got %d", b.Len())
	}
}

func TestBufferEvictsOldestPairFIFO(t *testing.T) {
	b := &history.Buffer{}
	for i := 0; i < 10; i++ {
		b.AppendExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}
	if b.Len() != history.MaxTurns {
		t.Fatalf("expected full buffer, got %d", b.Len())
	}

	b.AppendExchange("q10", "a10")

	turns := b.All()
	if len(turns) != history.MaxTurns {
		t.Fatalf("expected len %d after overflow, got %d", history.MaxTurns, len(turns))
	}
	// The oldest pair (q0/a0) and only that pair is gone.
	if turns[0].Content != "q1" || turns[1].Content != "a1" {
		t.Fatalf("expected head q1/a1, got %q/%q", turns[0].Content, turns[1].Content)
	}
	if turns[len(turns)-2].Content != "q10" || turns[len(turns)-1].Content != "a10" {
		t.Fatalf("expected tail q10/a10, got %q/%q",
			turns[len(turns)-2].Content, turns[len(turns)-1].Content)
	}
	for _, turn := range turns {
		if turn.Content == "q0" || turn.Content == "a0" {
			t.Fatalf("evicted turn still present: %+v", turn)
		}
	}
}

func TestBufferEvictionKeepsRolesPaired(t *testing.T) {
	b := &history.Buffer{}
	for i := 0; i < 15; i++ {
		b.AppendExchange("q", "a")
	}
	turns := b.All()
	for i, turn := range turns {
		want := history.RoleUser
		if i%2 == 1 {
			want = history.RoleAssistant
		}
		if turn.Role != want {
			t.Fatalf("position %d: expected role %q, got %q", i, want, turn.Role)
		}
	}
}

func TestBufferClear(t *testing.T) {
	b := &history.Buffer{}
	b.AppendExchange("q", "a")
	b.Clear()
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer after Clear, got %d", b.Len())
	}
}

func TestBufferAllReturnsCopy(t *testing.T) {
	b := &history.Buffer{}
	b.AppendExchange("q", "a")
	turns := b.All()
	turns[0].Content = "mutated"
	if b.All()[0].Content != "q" {
		t.Fatal("All must return a copy, not the backing slice")
	}
}
