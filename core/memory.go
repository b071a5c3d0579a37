package core

import "time"

// Memory is a single durable fact owned by an agent. A memory without an
// embedding is still eligible for keyword search but never participates in
// vector-similarity ranking. An empty UserID marks the memory as
// agent-global: it is visible to every user of the owning agent.
type Memory struct {
	ID         string     `json:"id"`
	AgentID    string     `json:"agent_id"`
	UserID     string     `json:"user_id,omitempty"`
	Content    string     `json:"content"`
	Category   string     `json:"category,omitempty"`
	Importance float64    `json:"importance"`
	Embedding  []float32  `json:"embedding,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Expired reports whether the memory has an expiry timestamp in the past
// relative to now.
func (m Memory) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !m.ExpiresAt.After(now)
}

// MemoryRecord is the insert shape accepted by Store.InsertMemory. The store
// assigns timestamps; the caller supplies the ID (the engine generates one
// when remembering).
type MemoryRecord struct {
	ID         string
	AgentID    string
	UserID     string
	Content    string
	Category   string
	Importance float64
	Embedding  []float32
	ExpiresAt  *time.Time
}

// RecallQuery describes one recall call. It is constructed per call and
// never persisted.
//
// Limit caps the result count; a Limit <= 0 yields an empty result, not an
// error. MinSimilarity applies to the semantic path (and the vector arm of
// hybrid recall); zero means the engine default. VectorWeight and
// KeywordWeight steer hybrid fusion; when both are zero the engine defaults
// apply. They need not sum to 1, though they conventionally do.
type RecallQuery struct {
	Text          string
	UserID        string
	Category      string
	MinImportance float64
	Limit         int
	MinSimilarity float64
	VectorWeight  float64
	KeywordWeight float64
}

// SimilarQuery parameterizes Engine.FindSimilarMemories. MinSimilarity zero
// means the stricter near-duplicate default; Limit <= 0 means the default
// limit.
type SimilarQuery struct {
	MinSimilarity float64
	Limit         int
}

// Filters restricts store retrieval operations. AgentID is always set by the
// engine. A memory matches UserID when the filter is empty, the memory is
// agent-global (no owning user), or the two are equal. Category matches
// exactly when set. MinImportance is an inclusive lower bound.
type Filters struct {
	AgentID       string
	UserID        string
	Category      string
	MinImportance float64
}

// ScoredMemory pairs a candidate memory with the raw score assigned by one
// store retrieval operation: cosine similarity in [0,1] for VectorSearch,
// an implementation-defined relative relevance for KeywordSearch. It exists
// only for the duration of one recall call.
type ScoredMemory struct {
	Memory Memory
	Score  float64
}
