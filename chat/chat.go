// Package chat defines the chat-transcript persistence consumed by the
// coordination layer: message and session records plus the narrow store
// interfaces it needs. The coordinator only ever patches messages it created
// itself, identified by the message id captured at creation time.
package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/beclab/flowrelay/event"
)

// Message is one persisted transcript entry. Payload holds the
// category-specific body exactly as it appeared on the outbound event.
type Message struct {
	ID        string          `json:"id"`
	ChatID    string          `json:"chat_id"`
	FlowID    string          `json:"flow_id"`
	UserID    string          `json:"user_id"`
	Category  event.Category  `json:"category"`
	Payload   json.RawMessage `json:"message"`
	Files     []string        `json:"files,omitempty"`
	Extra     string          `json:"extra,omitempty"`
	IsBot     bool            `json:"is_bot"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Session is one chat session bound to a workflow.
type Session struct {
	ChatID    string    `json:"chat_id"`
	FlowID    string    `json:"flow_id"`
	FlowName  string    `json:"flow_name,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageStore persists transcript messages.
type MessageStore interface {
	// CreateMessage persists a new message and assigns its ID.
	CreateMessage(ctx context.Context, msg *Message) error

	// GetMessage returns a message by id, or flowrelay.ErrMessageNotFound.
	GetMessage(ctx context.Context, msgID string) (*Message, error)

	// UpdateMessage persists changes to an existing message.
	UpdateMessage(ctx context.Context, msg *Message) error
}

// SessionStore persists chat sessions.
type SessionStore interface {
	// GetOrCreateSession returns the session for chatID, creating it if
	// absent.
	GetOrCreateSession(ctx context.Context, chatID, flowID, userID string) (*Session, error)
}
