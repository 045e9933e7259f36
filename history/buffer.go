package history

import "sync"

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MaxTurns caps the buffer to keep request payloads inside token limits.
const MaxTurns = 20

// Buffer is a bounded ordered log of chat turns. When an append pushes the
// length past MaxTurns, the oldest user+assistant pair is dropped from the
// head, so eviction never leaves a dangling odd turn behind.
type Buffer struct {
	mu    sync.Mutex
	turns []Turn
}

// Append adds a single turn, evicting oldest pairs as needed.
func (b *Buffer) Append(t Turn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = append(b.turns, t)
	b.trim()
}

// AppendExchange adds a completed user+assistant pair.
func (b *Buffer) AppendExchange(userContent, assistantContent string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = append(b.turns,
		Turn{Role: RoleUser, Content: userContent},
		Turn{Role: RoleAssistant, Content: assistantContent},
	)
	b.trim()
}

// All returns a copy of the buffered turns in order.
func (b *Buffer) All() []Turn {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]Turn, len(b.turns))
	copy(cp, b.turns)
	return cp
}

// Len returns the current number of turns.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.turns)
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = nil
}

// restore replaces the contents wholesale, re-applying the cap.
func (b *Buffer) restore(turns []Turn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = append(b.turns[:0], turns...)
	b.trim()
}

// trim drops pairs from the head until the cap holds. Caller must hold mu.
func (b *Buffer) trim() {
	for len(b.turns) > MaxTurns {
		b.turns = b.turns[2:]
	}
}
