// Package chromem implements core.Store on chromem-go, a pure Go embedded
// vector database. chromem answers the vector-similarity operation; a
// process-local record map alongside it serves keyword search, listing and
// deletes, since chromem indexes documents by embedding only.
package chromem

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/Arephan/supaclaw/core"
)

// Interface compliance (compile-time assertion)
var _ core.Store = (*Store)(nil)

// Store keeps memories in a chromem collection per agent plus a mirror map
// for the non-vector operations. Safe for concurrent use.
type Store struct {
	db          *chromem.DB
	mu          sync.RWMutex
	collections map[string]*chromem.Collection // per-agent
	records     map[string]core.Memory         // id -> memory
}

// New creates an empty chromem-backed store.
func New() *Store {
	return &Store{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
		records:     make(map[string]core.Memory),
	}
}

// collectionLocked returns the collection for an agent, creating it lazily.
// Caller must hold the write lock.
func (s *Store) collectionLocked(agentID string) (*chromem.Collection, error) {
	if col, ok := s.collections[agentID]; ok {
		return col, nil
	}
	col, err := s.db.CreateCollection("agent_"+agentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.collections[agentID] = col
	return col, nil
}

// InsertMemory stores a new memory. Rows with an embedding are additionally
// indexed in chromem.
func (s *Store) InsertMemory(ctx context.Context, rec core.MemoryRecord) (core.Memory, error) {
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
		Embedding:  rec.Embedding,
		ExpiresAt:  rec.ExpiresAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if len(rec.Embedding) > 0 {
		col, err := s.collectionLocked(rec.AgentID)
		if err != nil {
			return core.Memory{}, err
		}
		doc := chromem.Document{
			ID:        id,
			Content:   rec.Content,
			Embedding: rec.Embedding,
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return core.Memory{}, fmt.Errorf("add document: %w", err)
		}
	}

	s.records[id] = mem
	return mem, nil
}

// DeleteMemory removes a memory from the map and, when indexed, from
// chromem. Absent ids are a no-op.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem, ok := s.records[id]
	if !ok {
		return nil
	}
	delete(s.records, id)

	if len(mem.Embedding) > 0 {
		if col, ok := s.collections[mem.AgentID]; ok {
			if err := col.Delete(ctx, nil, nil, id); err != nil {
				return fmt.Errorf("delete document: %w", err)
			}
		}
	}
	return nil
}

// GetMemories lists matching rows ordered by importance then recency.
func (s *Store) GetMemories(_ context.Context, f core.Filters, limit int) ([]core.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	matched := []core.Memory{}
	for _, mem := range s.records {
		if matchesFilters(mem, f, now) {
			matched = append(matched, mem)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Importance != matched[j].Importance {
			return matched[i].Importance > matched[j].Importance
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit <= 0 {
		return []core.Memory{}, nil
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// GetMemoryEmbedding returns the stored embedding for id, or
// core.ErrNotFound when the row is absent or carries no embedding.
func (s *Store) GetMemoryEmbedding(_ context.Context, id string) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mem, ok := s.records[id]
	if !ok || len(mem.Embedding) == 0 {
		return nil, core.ErrNotFound
	}
	return mem.Embedding, nil
}

// VectorSearch queries the agent's chromem collection and re-applies the
// filter set to the hits. chromem caps nResults at the collection size, so
// the request is clamped before querying.
func (s *Store) VectorSearch(ctx context.Context, vec []float32, f core.Filters, minSimilarity float64, limit int) ([]core.ScoredMemory, error) {
	if limit <= 0 {
		return []core.ScoredMemory{}, nil
	}

	s.mu.Lock()
	col, err := s.collectionLocked(f.AgentID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// Over-fetch so filter misses do not starve the result set.
	n := limit * 4
	if count := col.Count(); n > count {
		n = count
	}
	if n == 0 {
		return []core.ScoredMemory{}, nil
	}

	hits, err := col.QueryEmbedding(ctx, vec, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	results := []core.ScoredMemory{}
	for _, hit := range hits {
		sim := float64(hit.Similarity)
		if sim < minSimilarity {
			continue
		}
		mem, ok := s.records[hit.ID]
		if !ok || !matchesFilters(mem, f, now) {
			continue
		}
		results = append(results, core.ScoredMemory{Memory: mem, Score: sim})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// KeywordSearch scans the record map with case-insensitive substring
// matching, scoring by occurrence count, ordered by importance then recency.
func (s *Store) KeywordSearch(_ context.Context, text string, f core.Filters, limit int) ([]core.ScoredMemory, error) {
	if limit <= 0 {
		return []core.ScoredMemory{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(text)
	now := time.Now()
	results := []core.ScoredMemory{}
	for _, mem := range s.records {
		if !matchesFilters(mem, f, now) {
			continue
		}
		hits := 1
		if needle != "" {
			hits = strings.Count(strings.ToLower(mem.Content), needle)
			if hits == 0 {
				continue
			}
		}
		results = append(results, core.ScoredMemory{Memory: mem, Score: float64(hits)})
	}
	sort.Slice(results, func(i, j int) bool {
		mi, mj := results[i].Memory, results[j].Memory
		if mi.Importance != mj.Importance {
			return mi.Importance > mj.Importance
		}
		return mi.CreatedAt.After(mj.CreatedAt)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

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
