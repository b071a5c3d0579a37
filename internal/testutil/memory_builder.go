package testutil

import (
	"time"

	"github.com/Arephan/supaclaw/core"
)

// MemoryBuilder provides a fluent helper for constructing memories in tests.
// Example:
//
//	mem := NewMemoryBuilder("agent-1").ID("m1").Content("prefers TypeScript").Importance(0.9).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type MemoryBuilder struct {
	mem core.Memory
}

// NewMemoryBuilder creates a builder for the given agent with importance 0.5
// and the current creation time.
func NewMemoryBuilder(agentID string) *MemoryBuilder {
	now := time.Now()
	return &MemoryBuilder{mem: core.Memory{
		AgentID:    agentID,
		Importance: 0.5,
		CreatedAt:  now,
		UpdatedAt:  now,
	}}
}

// ID overrides the memory id (chainable).
func (b *MemoryBuilder) ID(id string) *MemoryBuilder { b.mem.ID = id; return b }

// User sets the owning user; leave unset for an agent-global memory (chainable).
func (b *MemoryBuilder) User(userID string) *MemoryBuilder { b.mem.UserID = userID; return b }

// Content sets the memory content (chainable).
func (b *MemoryBuilder) Content(c string) *MemoryBuilder { b.mem.Content = c; return b }

// Category sets the category tag (chainable).
func (b *MemoryBuilder) Category(c string) *MemoryBuilder { b.mem.Category = c; return b }

// Importance sets the importance score (chainable).
func (b *MemoryBuilder) Importance(i float64) *MemoryBuilder { b.mem.Importance = i; return b }

// Embedding sets the embedding vector (chainable).
func (b *MemoryBuilder) Embedding(vec []float32) *MemoryBuilder { b.mem.Embedding = vec; return b }

// CreatedAt overrides the creation timestamp, useful for recency
// tie-breaking tests (chainable).
func (b *MemoryBuilder) CreatedAt(t time.Time) *MemoryBuilder {
	b.mem.CreatedAt = t
	b.mem.UpdatedAt = t
	return b
}

// ExpiresAt sets the expiry timestamp (chainable).
func (b *MemoryBuilder) ExpiresAt(t time.Time) *MemoryBuilder { b.mem.ExpiresAt = &t; return b }

// Build constructs the core.Memory value.
func (b *MemoryBuilder) Build() core.Memory { return b.mem }

// Record constructs the equivalent insert record for store tests.
func (b *MemoryBuilder) Record() core.MemoryRecord {
	return core.MemoryRecord{
		ID:         b.mem.ID,
		AgentID:    b.mem.AgentID,
		UserID:     b.mem.UserID,
		Content:    b.mem.Content,
		Category:   b.mem.Category,
		Importance: b.mem.Importance,
		Embedding:  b.mem.Embedding,
		ExpiresAt:  b.mem.ExpiresAt,
	}
}

// Message constructs a session message for history tests.
func Message(sessionID, role, content string, at time.Time) core.Message {
	return core.Message{SessionID: sessionID, Role: role, Content: content, CreatedAt: at}
}

// UnitVector returns a unit-length vector of the given dimension with all
// weight on axis. Vectors on the same axis have cosine similarity 1;
// orthogonal axes have 0.
func UnitVector(dims, axis int) []float32 {
	vec := make([]float32, dims)
	vec[axis] = 1
	return vec
}
