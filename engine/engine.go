package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Arephan/supaclaw/core"
	"github.com/Arephan/supaclaw/embedding"
	"github.com/Arephan/supaclaw/logging"
)

const (
	// DefaultMinSimilarity is the cosine similarity floor for semantic
	// recall and the vector arm of hybrid recall.
	DefaultMinSimilarity = 0.7

	// DefaultSimilarMinSimilarity is the stricter floor used by
	// FindSimilarMemories, which targets near-duplicates.
	DefaultSimilarMinSimilarity = 0.8

	// DefaultSimilarLimit caps FindSimilarMemories results when the caller
	// does not set one.
	DefaultSimilarLimit = 5

	// DefaultVectorWeight and DefaultKeywordWeight steer hybrid fusion.
	DefaultVectorWeight  = 0.7
	DefaultKeywordWeight = 0.3

	// defaultImportance is assigned when Remember receives a negative
	// importance.
	defaultImportance = 0.5
)

// Options configure an Engine instance. All values are fixed at
// construction; zero values fall back to the package defaults.
type Options struct {
	MinSimilarity        float64
	SimilarMinSimilarity float64
	VectorWeight         float64
	KeywordWeight        float64
	Logger               logging.Logger
}

// Engine is the stateless recall orchestrator scoped to a single agent. The
// agent identifier is threaded into every store filter rather than looked up
// ambiently, so one process can run engines for several agents side by side.
type Engine struct {
	agentID  string
	store    core.Store
	provider embedding.Provider
	opts     Options
	logger   logging.Logger
}

// New creates an Engine for agentID over the given store and embedding
// provider. A nil provider behaves as embedding.None(): every recall takes
// the keyword path.
func New(agentID string, store core.Store, provider embedding.Provider, optFns ...func(o *Options)) *Engine {
	opts := Options{
		MinSimilarity:        DefaultMinSimilarity,
		SimilarMinSimilarity: DefaultSimilarMinSimilarity,
		VectorWeight:         DefaultVectorWeight,
		KeywordWeight:        DefaultKeywordWeight,
		Logger:               logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if provider == nil {
		provider = embedding.None()
	}
	return &Engine{
		agentID:  agentID,
		store:    store,
		provider: provider,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// AgentID returns the agent this engine is scoped to.
func (e *Engine) AgentID() string { return e.agentID }

// strategy is the retrieval path chosen for one recall call.
type strategy int

const (
	strategyKeyword strategy = iota
	strategySemantic
)

// selectStrategy embeds the query text and decides the retrieval path.
// ErrUnavailable selects the keyword path; any other provider error is
// fatal and aborts the call.
func (e *Engine) selectStrategy(ctx context.Context, text string) (strategy, []float32, error) {
	vec, err := e.provider.Embed(ctx, text)
	switch {
	case errors.Is(err, embedding.ErrUnavailable):
		return strategyKeyword, nil, nil
	case err != nil:
		return strategyKeyword, nil, err
	}
	return strategySemantic, vec, nil
}

// Recall returns up to q.Limit memories ranked by relevance to q.Text,
// retrieved semantically when an embedding is available and by keyword
// otherwise. A q.Limit <= 0 yields an empty result.
func (e *Engine) Recall(ctx context.Context, q core.RecallQuery) ([]core.Memory, error) {
	if q.Limit <= 0 {
		return []core.Memory{}, nil
	}
	start := time.Now()

	strat, vec, err := e.selectStrategy(ctx, q.Text)
	if err != nil {
		e.logger.Error("recall embedding failed: %v", err)
		return nil, err
	}

	var mems []core.Memory
	if strat == strategySemantic {
		mems, err = e.semanticRecall(ctx, q, vec)
	} else {
		mems, err = e.keywordRecall(ctx, q)
	}
	e.logger.Debug("recall completed strategy=%s results=%d duration=%s",
		strategyName(strat), len(mems), time.Since(start))
	return mems, err
}

// HybridRecall fuses vector and keyword candidate sets with a weighted sum.
// When no embedding is available it degrades to exactly the keyword behavior
// of Recall; no partial hybrid computation is attempted.
func (e *Engine) HybridRecall(ctx context.Context, q core.RecallQuery) ([]core.Memory, error) {
	if q.Limit <= 0 {
		return []core.Memory{}, nil
	}
	start := time.Now()

	strat, vec, err := e.selectStrategy(ctx, q.Text)
	if err != nil {
		e.logger.Error("recall embedding failed: %v", err)
		return nil, err
	}
	if strat == strategyKeyword {
		mems, kerr := e.keywordRecall(ctx, q)
		e.logger.Debug("recall completed strategy=keyword results=%d duration=%s",
			len(mems), time.Since(start))
		return mems, kerr
	}

	f := e.filters(q)
	minSim := q.MinSimilarity
	if minSim <= 0 {
		minSim = e.opts.MinSimilarity
	}

	// The two retrievals are independent; issue them concurrently.
	type searchOut struct {
		res []core.ScoredMemory
		err error
	}
	vecCh := make(chan searchOut, 1)
	kwCh := make(chan searchOut, 1)
	go func() {
		res, verr := e.store.VectorSearch(ctx, vec, f, minSim, q.Limit)
		vecCh <- searchOut{res, verr}
	}()
	go func() {
		res, kerr := e.store.KeywordSearch(ctx, q.Text, f, q.Limit)
		kwCh <- searchOut{res, kerr}
	}()
	vecOut, kwOut := <-vecCh, <-kwCh
	if vecOut.err != nil {
		return nil, core.NewRetrievalError("vector search", vecOut.err)
	}
	if kwOut.err != nil {
		return nil, core.NewRetrievalError("keyword search", kwOut.err)
	}

	vw, kw := q.VectorWeight, q.KeywordWeight
	if vw == 0 && kw == 0 {
		vw, kw = e.opts.VectorWeight, e.opts.KeywordWeight
	}

	ranked := fuseCandidates(vecOut.res, kwOut.res, vw, kw)
	mems := make([]core.Memory, 0, q.Limit)
	for _, c := range ranked {
		if len(mems) == q.Limit {
			break
		}
		mems = append(mems, c.memory)
	}
	e.logger.Debug("recall completed strategy=hybrid results=%d duration=%s",
		len(mems), time.Since(start))
	return mems, nil
}

// FindSimilarMemories retrieves memories whose embeddings are close to the
// referenced memory's embedding, excluding the memory itself. Returns
// core.ErrNotFound when the memory does not exist or has no embedding.
func (e *Engine) FindSimilarMemories(ctx context.Context, memoryID string, q core.SimilarQuery) ([]core.Memory, error) {
	vec, err := e.store.GetMemoryEmbedding(ctx, memoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("find similar memories %s: %w", memoryID, core.ErrNotFound)
		}
		return nil, core.NewRetrievalError("get embedding", err)
	}

	minSim := q.MinSimilarity
	if minSim <= 0 {
		minSim = e.opts.SimilarMinSimilarity
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	// One extra row so the source memory can be dropped without shrinking
	// the result set.
	results, err := e.store.VectorSearch(ctx, vec, core.Filters{AgentID: e.agentID}, minSim, limit+1)
	if err != nil {
		return nil, core.NewRetrievalError("vector search", err)
	}
	sortBySimilarity(results)

	mems := make([]core.Memory, 0, limit)
	for _, r := range results {
		if r.Memory.ID == memoryID {
			continue
		}
		if len(mems) == limit {
			break
		}
		mems = append(mems, r.Memory)
	}
	return mems, nil
}

// RememberRequest describes a new memory to persist.
type RememberRequest struct {
	Content    string
	UserID     string
	Category   string
	Importance float64 // negative selects the default 0.5
	ExpiresAt  *time.Time
}

// Remember embeds the content and persists a new memory. ErrUnavailable from
// the provider stores the memory without an embedding (keyword-only); any
// other provider failure aborts the write entirely so no memory is persisted
// with a missing-but-expected embedding.
func (e *Engine) Remember(ctx context.Context, req RememberRequest) (core.Memory, error) {
	vec, err := e.provider.Embed(ctx, req.Content)
	if err != nil && !errors.Is(err, embedding.ErrUnavailable) {
		e.logger.Error("remember embedding failed: %v", err)
		return core.Memory{}, err
	}

	importance := req.Importance
	if importance < 0 {
		importance = defaultImportance
	}

	mem, err := e.store.InsertMemory(ctx, core.MemoryRecord{
		ID:         uuid.NewString(),
		AgentID:    e.agentID,
		UserID:     req.UserID,
		Content:    req.Content,
		Category:   req.Category,
		Importance: importance,
		Embedding:  vec,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		return core.Memory{}, core.NewRetrievalError("insert memory", err)
	}
	e.logger.Debug("memory stored memory_id=%s embedded=%t", mem.ID, len(vec) > 0)
	return mem, nil
}

// Forget deletes a memory permanently. Forgetting an unknown id succeeds.
func (e *Engine) Forget(ctx context.Context, memoryID string) error {
	if err := e.store.DeleteMemory(ctx, memoryID); err != nil {
		return core.NewRetrievalError("delete memory", err)
	}
	return nil
}

// GetMemories lists memories matching the query filters without ranking by
// relevance, ordered by importance then recency.
func (e *Engine) GetMemories(ctx context.Context, q core.RecallQuery) ([]core.Memory, error) {
	if q.Limit <= 0 {
		return []core.Memory{}, nil
	}
	mems, err := e.store.GetMemories(ctx, e.filters(q), q.Limit)
	if err != nil {
		return nil, core.NewRetrievalError("list memories", err)
	}
	return mems, nil
}

// semanticRecall runs the vector-similarity path.
func (e *Engine) semanticRecall(ctx context.Context, q core.RecallQuery, vec []float32) ([]core.Memory, error) {
	minSim := q.MinSimilarity
	if minSim <= 0 {
		minSim = e.opts.MinSimilarity
	}
	results, err := e.store.VectorSearch(ctx, vec, e.filters(q), minSim, q.Limit)
	if err != nil {
		return nil, core.NewRetrievalError("vector search", err)
	}
	sortBySimilarity(results)
	return scoredMemories(results, q.Limit), nil
}

// keywordRecall runs the substring-match fallback path.
func (e *Engine) keywordRecall(ctx context.Context, q core.RecallQuery) ([]core.Memory, error) {
	results, err := e.store.KeywordSearch(ctx, q.Text, e.filters(q), q.Limit)
	if err != nil {
		return nil, core.NewRetrievalError("keyword search", err)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return lessByImportanceRecency(results[j].Memory, results[i].Memory)
	})
	return scoredMemories(results, q.Limit), nil
}

func (e *Engine) filters(q core.RecallQuery) core.Filters {
	return core.Filters{
		AgentID:       e.agentID,
		UserID:        q.UserID,
		Category:      q.Category,
		MinImportance: q.MinImportance,
	}
}

// sortBySimilarity orders candidates by similarity descending, breaking ties
// by importance descending then creation time descending.
func sortBySimilarity(results []core.ScoredMemory) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return lessByImportanceRecency(results[j].Memory, results[i].Memory)
	})
}

// lessByImportanceRecency reports whether a ranks below b: lower importance
// first, older creation first. Callers invert arguments to sort descending.
func lessByImportanceRecency(a, b core.Memory) bool {
	if a.Importance != b.Importance {
		return a.Importance < b.Importance
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func scoredMemories(results []core.ScoredMemory, limit int) []core.Memory {
	mems := make([]core.Memory, 0, len(results))
	for _, r := range results {
		if len(mems) == limit {
			break
		}
		mems = append(mems, r.Memory)
	}
	return mems
}

func strategyName(s strategy) string {
	if s == strategySemantic {
		return "semantic"
	}
	return "keyword"
}
