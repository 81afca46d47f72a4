package chat

import (
	"context"
	"sync"
	"time"
)

type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationStore keeps per-conversation history, oldest first.
type ConversationStore interface {
	History(ctx context.Context, conversationID string) ([]Message, error)
	// Append adds msgs and returns the number of messages now kept.
	Append(ctx context.Context, conversationID string, msgs ...Message) (int, error)
	Delete(ctx context.Context, conversationID string) error
}

// MemoryStore is a process-local ConversationStore. It is not durable: history
// is lost on restart and is not shared between instances. Each conversation
// keeps only its most recent limit messages.
type MemoryStore struct {
	mu            sync.Mutex
	limit         int
	conversations map[string][]Message
}

var _ ConversationStore = (*MemoryStore)(nil)

func NewMemoryStore(limit int) *MemoryStore {
	if limit < 1 {
		limit = 50
	}
	return &MemoryStore{limit: limit, conversations: make(map[string][]Message)}
}

func (m *MemoryStore) History(_ context.Context, id string) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.conversations[id]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *MemoryStore) Append(_ context.Context, id string, msgs ...Message) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := append(m.conversations[id], msgs...)
	if over := len(cur) - m.limit; over > 0 {
		trimmed := make([]Message, m.limit)
		copy(trimmed, cur[over:])
		cur = trimmed
	}
	m.conversations[id] = cur
	return len(cur), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, id)
	return nil
}
