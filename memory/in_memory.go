package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Arephan/supaclaw/core"
)

// InMemoryStore is a process-local core.Store. It offers:
//  1. Keyed memory rows with insert/delete/list
//  2. Cosine-similarity vector search over rows carrying an embedding
//  3. Case-insensitive substring keyword search
//
// Concurrency: protected by RWMutex. Keyword relevance is the occurrence
// count of the query within the content, an unbounded relative score the
// engine normalizes before fusion. Suitable for tests, demos and small
// agents; swap for memory/postgres or memory/chromem in production.
type InMemoryStore struct {
	mu       sync.RWMutex
	memories map[string]core.Memory
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{memories: make(map[string]core.Memory)}
}

// InsertMemory stores a new memory row, assigning an ID when absent and
// stamping creation/update times.
func (s *InMemoryStore) InsertMemory(_ context.Context, rec core.MemoryRecord) (core.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	mem := core.Memory{
		ID:         id,
		AgentID:    rec.AgentID,
		UserID:     rec.UserID,
		Content:    rec.Content,
		Category:   rec.Category,
		Importance: rec.Importance,
		Embedding:  cloneVector(rec.Embedding),
		ExpiresAt:  rec.ExpiresAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.memories[id] = mem
	return cloneMemory(mem), nil
}

// DeleteMemory removes a row permanently. Absent ids are a no-op.
func (s *InMemoryStore) DeleteMemory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memories, id)
	return nil
}

// GetMemories lists matching rows ordered by importance descending then
// creation time descending.
func (s *InMemoryStore) GetMemories(_ context.Context, f core.Filters, limit int) ([]core.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	matched := make([]core.Memory, 0, limit)
	for _, mem := range s.memories {
		if matchesFilters(mem, f, now) {
			matched = append(matched, cloneMemory(mem))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Importance != matched[j].Importance {
			return matched[i].Importance > matched[j].Importance
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return capResults(matched, limit), nil
}

// GetMemoryEmbedding returns the stored embedding for id, or
// core.ErrNotFound when the row is absent or carries no embedding.
func (s *InMemoryStore) GetMemoryEmbedding(_ context.Context, id string) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mem, ok := s.memories[id]
	if !ok || len(mem.Embedding) == 0 {
		return nil, core.ErrNotFound
	}
	return cloneVector(mem.Embedding), nil
}

// VectorSearch returns rows with cosine similarity >= minSimilarity ordered
// by similarity descending. Rows without an embedding never appear.
func (s *InMemoryStore) VectorSearch(_ context.Context, vec []float32, f core.Filters, minSimilarity float64, limit int) ([]core.ScoredMemory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var results []core.ScoredMemory
	for _, mem := range s.memories {
		if len(mem.Embedding) == 0 || !matchesFilters(mem, f, now) {
			continue
		}
		sim := cosineSimilarity(vec, mem.Embedding)
		if sim < minSimilarity {
			continue
		}
		results = append(results, core.ScoredMemory{Memory: cloneMemory(mem), Score: sim})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return capScored(results, limit), nil
}

// KeywordSearch returns rows whose content contains the query text
// case-insensitively, scored by occurrence count, ordered by importance
// descending then creation time descending.
func (s *InMemoryStore) KeywordSearch(_ context.Context, text string, f core.Filters, limit int) ([]core.ScoredMemory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(text)
	now := time.Now()
	var results []core.ScoredMemory
	for _, mem := range s.memories {
		if !matchesFilters(mem, f, now) {
			continue
		}
		hits := 1 // empty query matches everything once
		if needle != "" {
			hits = strings.Count(strings.ToLower(mem.Content), needle)
			if hits == 0 {
				continue
			}
		}
		results = append(results, core.ScoredMemory{Memory: cloneMemory(mem), Score: float64(hits)})
	}
	sort.Slice(results, func(i, j int) bool {
		mi, mj := results[i].Memory, results[j].Memory
		if mi.Importance != mj.Importance {
			return mi.Importance > mj.Importance
		}
		return mi.CreatedAt.After(mj.CreatedAt)
	})
	return capScored(results, limit), nil
}

// matchesFilters applies the shared filter semantics: exact agent match,
// user match (filter unset, row agent-global, or equal), exact category
// when set, inclusive importance floor, and expiry exclusion.
func matchesFilters(mem core.Memory, f core.Filters, now time.Time) bool {
	if mem.AgentID != f.AgentID {
		return false
	}
	if f.UserID != "" && mem.UserID != "" && mem.UserID != f.UserID {
		return false
	}
	if f.Category != "" && mem.Category != f.Category {
		return false
	}
	if mem.Importance < f.MinImportance {
		return false
	}
	return !mem.Expired(now)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func cloneMemory(mem core.Memory) core.Memory {
	mem.Embedding = cloneVector(mem.Embedding)
	return mem
}

func cloneVector(vec []float32) []float32 {
	if vec == nil {
		return nil
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}

func capResults(mems []core.Memory, limit int) []core.Memory {
	if limit <= 0 {
		return []core.Memory{}
	}
	if len(mems) > limit {
		return mems[:limit]
	}
	return mems
}

func capScored(res []core.ScoredMemory, limit int) []core.ScoredMemory {
	if limit <= 0 {
		return []core.ScoredMemory{}
	}
	if len(res) > limit {
		return res[:limit]
	}
	return res
}
