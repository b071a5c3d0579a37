package memory

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arephan/supaclaw/core"
	"github.com/Arephan/supaclaw/internal/testutil"
)

// Interface compliance (compile-time assertion)
var _ core.Store = (*InMemoryStore)(nil)

func seed(t *testing.T, s *InMemoryStore, recs ...core.MemoryRecord) []core.Memory {
	t.Helper()
	out := make([]core.Memory, 0, len(recs))
	for _, rec := range recs {
		mem, err := s.InsertMemory(context.Background(), rec)
		require.NoError(t, err)
		out = append(out, mem)
	}
	return out
}

func TestInMemoryStore_InsertAssignsIdentity(t *testing.T) {
	s := NewInMemoryStore()
	mem, err := s.InsertMemory(context.Background(), core.MemoryRecord{AgentID: "a1", Content: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, mem.ID)
	assert.False(t, mem.CreatedAt.IsZero())
	assert.False(t, mem.UpdatedAt.IsZero())
}

func TestInMemoryStore_FilterSemantics(t *testing.T) {
	s := NewInMemoryStore()
	seed(t, s,
		testutil.NewMemoryBuilder("a1").ID("global").Content("agent-global fact").Importance(0.9).Record(),
		testutil.NewMemoryBuilder("a1").ID("mine").User("u1").Content("u1 fact").Importance(0.8).Record(),
		testutil.NewMemoryBuilder("a1").ID("theirs").User("u2").Content("u2 fact").Importance(0.7).Record(),
		testutil.NewMemoryBuilder("a2").ID("other-agent").Content("not ours").Importance(1.0).Record(),
		testutil.NewMemoryBuilder("a1").ID("tagged").Category("prefs").Content("tagged fact").Importance(0.3).Record(),
	)

	// User filter matches owned rows plus agent-global rows.
	got, err := s.GetMemories(context.Background(), core.Filters{AgentID: "a1", UserID: "u1"}, 10)
	require.NoError(t, err)
	ids := memoryIDs(got)
	assert.ElementsMatch(t, []string{"global", "mine", "tagged"}, ids)

	// Category filter is exact.
	got, err = s.GetMemories(context.Background(), core.Filters{AgentID: "a1", Category: "prefs"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"tagged"}, memoryIDs(got))

	// Importance floor is inclusive.
	got, err = s.GetMemories(context.Background(), core.Filters{AgentID: "a1", MinImportance: 0.8}, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"global", "mine"}, memoryIDs(got))
}

func TestInMemoryStore_ExpiredRowsExcluded(t *testing.T) {
	s := NewInMemoryStore()
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	seed(t, s,
		testutil.NewMemoryBuilder("a1").ID("gone").Content("expired note").ExpiresAt(past).Record(),
		testutil.NewMemoryBuilder("a1").ID("kept").Content("fresh note").ExpiresAt(future).Record(),
	)

	got, err := s.GetMemories(context.Background(), core.Filters{AgentID: "a1"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, memoryIDs(got))

	res, err := s.KeywordSearch(context.Background(), "note", core.Filters{AgentID: "a1"}, 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "kept", res[0].Memory.ID)

	// Deleting an expired row still works.
	require.NoError(t, s.DeleteMemory(context.Background(), "gone"))
}

func TestInMemoryStore_VectorSearch(t *testing.T) {
	s := NewInMemoryStore()
	query := []float32{1, 0}
	angled := []float32{float32(math.Cos(0.4)), float32(math.Sin(0.4))} // cos ≈ 0.92
	seed(t, s,
		testutil.NewMemoryBuilder("a1").ID("exact").Content("same direction").Embedding([]float32{1, 0}).Record(),
		testutil.NewMemoryBuilder("a1").ID("close").Content("nearby").Embedding(angled).Record(),
		testutil.NewMemoryBuilder("a1").ID("orthogonal").Content("unrelated").Embedding([]float32{0, 1}).Record(),
		testutil.NewMemoryBuilder("a1").ID("plain").Content("keyword only row").Record(),
	)

	res, err := s.VectorSearch(context.Background(), query, core.Filters{AgentID: "a1"}, 0.7, 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	// Ordered by similarity descending; rows without embeddings never appear.
	assert.Equal(t, "exact", res[0].Memory.ID)
	assert.Equal(t, "close", res[1].Memory.ID)
	for _, r := range res {
		assert.GreaterOrEqual(t, r.Score, 0.7)
	}
}

func TestInMemoryStore_KeywordSearch(t *testing.T) {
	s := NewInMemoryStore()
	seed(t, s,
		testutil.NewMemoryBuilder("a1").ID("a").Content("User prefers TypeScript").Importance(0.9).Record(),
		testutil.NewMemoryBuilder("a1").ID("b").Content("likes coffee").Importance(0.2).Record(),
		testutil.NewMemoryBuilder("a1").ID("c").Content("typescript typescript everywhere").Importance(0.5).Record(),
	)

	res, err := s.KeywordSearch(context.Background(), "TypeScript", core.Filters{AgentID: "a1"}, 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	// Case-insensitive match, ordered by importance then recency.
	assert.Equal(t, "a", res[0].Memory.ID)
	assert.Equal(t, "c", res[1].Memory.ID)
	// Relevance is the occurrence count.
	assert.Equal(t, 1.0, res[0].Score)
	assert.Equal(t, 2.0, res[1].Score)

	res, err = s.KeywordSearch(context.Background(), "TypeScript", core.Filters{AgentID: "a1"}, 1)
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestInMemoryStore_GetMemoryEmbedding(t *testing.T) {
	s := NewInMemoryStore()
	seed(t, s,
		testutil.NewMemoryBuilder("a1").ID("with").Content("x").Embedding([]float32{0.5, 0.5}).Record(),
		testutil.NewMemoryBuilder("a1").ID("without").Content("y").Record(),
	)

	vec, err := s.GetMemoryEmbedding(context.Background(), "with")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)

	_, err = s.GetMemoryEmbedding(context.Background(), "without")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.GetMemoryEmbedding(context.Background(), "absent")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInMemoryStore_DeleteIdempotent(t *testing.T) {
	s := NewInMemoryStore()
	seed(t, s, testutil.NewMemoryBuilder("a1").ID("m1").Content("x").Record())

	require.NoError(t, s.DeleteMemory(context.Background(), "m1"))
	require.NoError(t, s.DeleteMemory(context.Background(), "m1"))
	require.NoError(t, s.DeleteMemory(context.Background(), "never-existed"))

	got, err := s.GetMemories(context.Background(), core.Filters{AgentID: "a1"}, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInMemoryStore_ReturnedMemoriesAreCopies(t *testing.T) {
	s := NewInMemoryStore()
	seed(t, s, testutil.NewMemoryBuilder("a1").ID("m1").Content("x").Embedding([]float32{1, 0}).Record())

	got, err := s.GetMemories(context.Background(), core.Filters{AgentID: "a1"}, 1)
	require.NoError(t, err)
	got[0].Embedding[0] = 42

	vec, err := s.GetMemoryEmbedding(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, float32(1), vec[0])
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := testutil.NewMemoryBuilder("a1").Content("concurrent fact").Record()
			if _, err := s.InsertMemory(context.Background(), rec); err != nil {
				t.Errorf("insert error: %v", err)
			}
			if _, err := s.KeywordSearch(context.Background(), "fact", core.Filters{AgentID: "a1"}, 5); err != nil {
				t.Errorf("search error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := s.GetMemories(context.Background(), core.Filters{AgentID: "a1"}, 100)
	require.NoError(t, err)
	assert.Len(t, got, 25)
}

func memoryIDs(mems []core.Memory) []string {
	ids := make([]string, len(mems))
	for i, m := range mems {
		ids[i] = m.ID
	}
	return ids
}
