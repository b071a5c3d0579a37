// Package supaclaw provides a high-level façade over the recall engine and
// service abstractions (memory store, message history, embedding provider &
// logging) giving a conversational agent durable, queryable memory. Most
// applications interact with this package by:
//  1. Creating a Supaclaw via New() with the owning agent id (optionally
//     overriding the default in-memory services)
//  2. Writing memories (Remember) and session messages (AppendMessage)
//  3. Retrieving ranked memories (Recall, HybridRecall, FindSimilarMemories)
//     or a ready-to-inject prompt context (GetContext)
//
// The façade delegates ranking to engine.Engine and context composition to
// assembler.Assembler while keeping setup and usage ergonomics concise. All
// defaults are safe for local development and testing; production
// deployments typically supply a durable store (memory/postgres), a real
// embedding provider (embedding/openai) and a structured logger.
package supaclaw

import (
	"context"
	"errors"

	"github.com/Arephan/supaclaw/assembler"
	"github.com/Arephan/supaclaw/core"
	"github.com/Arephan/supaclaw/embedding"
	"github.com/Arephan/supaclaw/engine"
	"github.com/Arephan/supaclaw/logging"
	"github.com/Arephan/supaclaw/memory"
	"github.com/Arephan/supaclaw/session"
)

// Options configures the Supaclaw instance. Configuration is fixed at
// construction; one configured instance is safe to share across goroutines.
type Options struct {
	// Store persists memories (defaults to an in-memory implementation).
	Store core.Store

	// Messages persists session history (defaults to an in-memory
	// implementation). Set to nil explicitly to disable history in
	// GetContext payloads.
	Messages core.MessageStore

	// Provider generates embeddings. Defaults to embedding.None(), which
	// keeps every recall on the keyword path.
	Provider embedding.Provider

	// Engine tuning (similarity floors, fusion weights).
	EngineOptions []func(o *engine.Options)

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Supaclaw is the high-level façade aggregating the engine and services.
type Supaclaw struct {
	opts      Options
	engine    *engine.Engine
	assembler *assembler.Assembler
}

// New creates a Supaclaw instance scoped to agentID with optional overrides.
// Any unset service is initialized with an in-memory implementation.
func New(agentID string, optFns ...func(o *Options)) *Supaclaw {
	opts := Options{
		Store:    memory.NewInMemoryStore(),
		Messages: session.NewInMemoryStore(),
		Provider: embedding.None(),
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	engineOpts := append([]func(o *engine.Options){func(o *engine.Options) {
		o.Logger = opts.Logger
	}}, opts.EngineOptions...)
	eng := engine.New(agentID, opts.Store, opts.Provider, engineOpts...)

	asm := assembler.New(eng, opts.Messages, func(o *assembler.Options) {
		o.Logger = opts.Logger
	})

	return &Supaclaw{opts: opts, engine: eng, assembler: asm}
}

// Engine exposes the underlying recall engine.
func (s *Supaclaw) Engine() *engine.Engine { return s.engine }

// Remember embeds and persists a new memory.
func (s *Supaclaw) Remember(ctx context.Context, req engine.RememberRequest) (core.Memory, error) {
	return s.engine.Remember(ctx, req)
}

// Recall returns ranked memories for the query using semantic retrieval
// when an embedding is available and keyword retrieval otherwise.
func (s *Supaclaw) Recall(ctx context.Context, q core.RecallQuery) ([]core.Memory, error) {
	return s.engine.Recall(ctx, q)
}

// HybridRecall returns ranked memories fusing vector and keyword scores.
func (s *Supaclaw) HybridRecall(ctx context.Context, q core.RecallQuery) ([]core.Memory, error) {
	return s.engine.HybridRecall(ctx, q)
}

// FindSimilarMemories returns memories semantically close to an existing
// memory, excluding the memory itself.
func (s *Supaclaw) FindSimilarMemories(ctx context.Context, memoryID string, q core.SimilarQuery) ([]core.Memory, error) {
	return s.engine.FindSimilarMemories(ctx, memoryID, q)
}

// Forget deletes a memory permanently; unknown ids succeed.
func (s *Supaclaw) Forget(ctx context.Context, memoryID string) error {
	return s.engine.Forget(ctx, memoryID)
}

// GetMemories lists memories matching the query filters without relevance
// ranking.
func (s *Supaclaw) GetMemories(ctx context.Context, q core.RecallQuery) ([]core.Memory, error) {
	return s.engine.GetMemories(ctx, q)
}

// AppendMessage records a session message for later context assembly.
func (s *Supaclaw) AppendMessage(ctx context.Context, msg core.Message) (core.Message, error) {
	if s.opts.Messages == nil {
		return core.Message{}, errors.New("no message store configured")
	}
	return s.opts.Messages.AppendMessage(ctx, msg)
}

// GetContext assembles recalled memories and recent session history into a
// prompt-ready payload.
func (s *Supaclaw) GetContext(ctx context.Context, q assembler.ContextQuery) (assembler.ContextPayload, error) {
	return s.assembler.GetContext(ctx, q)
}
