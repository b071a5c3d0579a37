package core

import "context"

// Store is the durable memory backend consumed by the recall engine. It
// exposes exactly the index operations the engine ranks over; fusion and
// tie-breaking happen in the engine, so implementations only need to honor
// the filter set and the per-operation ordering documented below.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// InsertMemory persists a new memory and returns the stored row with
	// timestamps assigned.
	InsertMemory(ctx context.Context, rec MemoryRecord) (Memory, error)

	// DeleteMemory removes a memory permanently. Deleting an absent id is
	// not an error.
	DeleteMemory(ctx context.Context, id string) error

	// GetMemories lists memories matching the filters, ordered by
	// importance descending then creation time descending, capped at limit.
	GetMemories(ctx context.Context, f Filters, limit int) ([]Memory, error)

	// GetMemoryEmbedding returns the stored embedding for a memory.
	// Returns ErrNotFound when the memory does not exist or has no
	// embedding.
	GetMemoryEmbedding(ctx context.Context, id string) ([]float32, error)

	// VectorSearch returns candidates whose cosine similarity to the query
	// vector is >= minSimilarity, matching the filters, ordered by
	// similarity descending, capped at limit. Memories without an embedding
	// never appear.
	VectorSearch(ctx context.Context, vec []float32, f Filters, minSimilarity float64, limit int) ([]ScoredMemory, error)

	// KeywordSearch returns candidates whose content matches the query text
	// (case-insensitive substring), matching the filters, with an
	// implementation-defined relevance score, capped at limit.
	KeywordSearch(ctx context.Context, text string, f Filters, limit int) ([]ScoredMemory, error)
}
