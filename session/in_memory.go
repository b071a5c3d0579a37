package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Arephan/supaclaw/core"
)

// InMemoryStore is a volatile MessageStore keeping session histories in a
// process-local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo agents. Returned slices are copies to prevent
// external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]core.Message
}

// NewInMemoryStore constructs an empty in-memory message store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{messages: make(map[string][]core.Message)}
}

// AppendMessage stores a message at the end of the session's history,
// assigning ID and timestamp when absent.
func (s *InMemoryStore) AppendMessage(_ context.Context, msg core.Message) (core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], msg)
	return msg, nil
}

// RecentMessages returns up to limit of the session's most recent messages
// in chronological order, oldest first.
func (s *InMemoryStore) RecentMessages(_ context.Context, sessionID string, limit int) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.messages[sessionID]
	if limit <= 0 || len(history) == 0 {
		return []core.Message{}, nil
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]core.Message, len(history))
	copy(out, history)
	return out, nil
}
