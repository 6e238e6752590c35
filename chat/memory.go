package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/beclab/flowrelay"
	"github.com/beclab/flowrelay/id"
)

// Compile-time interface checks.
var (
	_ MessageStore = (*MemoryStore)(nil)
	_ SessionStore = (*MemoryStore)(nil)
)

// MemoryStore is an in-memory MessageStore and SessionStore. Safe for
// concurrent access. Intended for unit testing and development.
type MemoryStore struct {
	mu       sync.Mutex
	messages map[string]*Message
	sessions map[string]*Session
}

// NewMemoryStore returns a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string]*Message),
		sessions: make(map[string]*Session),
	}
}

// CreateMessage persists a new message and assigns its ID.
func (m *MemoryStore) CreateMessage(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	msg.ID = id.NewMessageID().String()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

// GetMessage returns a message by id.
func (m *MemoryStore) GetMessage(_ context.Context, msgID string) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, ok := m.messages[msgID]
	if !ok {
		return nil, flowrelay.ErrMessageNotFound
	}
	cp := *msg
	return &cp, nil
}

// UpdateMessage persists changes to an existing message.
func (m *MemoryStore) UpdateMessage(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.messages[msg.ID]; !ok {
		return flowrelay.ErrMessageNotFound
	}
	msg.UpdatedAt = time.Now().UTC()
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

// Messages returns a snapshot of all stored messages in creation order.
func (m *MemoryStore) Messages() []*Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Message, 0, len(m.messages))
	for _, msg := range m.messages {
		cp := *msg
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Sessions returns a snapshot of all stored sessions.
func (m *MemoryStore) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		cp := *s
		out = append(out, &cp)
	}
	return out
}

// GetOrCreateSession returns the session for chatID, creating it if absent.
func (m *MemoryStore) GetOrCreateSession(_ context.Context, chatID, flowID, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[chatID]; ok {
		cp := *s
		return &cp, nil
	}
	s := &Session{
		ChatID:    chatID,
		FlowID:    flowID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	m.sessions[chatID] = s
	cp := *s
	return &cp, nil
}
