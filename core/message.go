package core

import (
	"context"
	"time"
)

// Message is one entry of a session's conversation history.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageStore persists session message history for the context assembler.
// Implementations must be safe for concurrent use.
type MessageStore interface {
	// AppendMessage stores a message, assigning ID and timestamp when
	// absent, and returns the stored row.
	AppendMessage(ctx context.Context, msg Message) (Message, error)

	// RecentMessages returns up to limit of the most recent messages for
	// the session in chronological order, oldest first. An unknown session
	// yields an empty slice, not an error.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)
}
