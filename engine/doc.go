// Package engine implements the recall engine: the stateless orchestrator
// that turns a free-text query into a ranked, deduplicated list of memories.
//
// Strategy selection is an explicit two-state decision. When the embedding
// provider produces a vector the engine retrieves by vector similarity
// (semantic); when the provider reports ErrUnavailable it retrieves by
// keyword match, silently: this is not an error path. A configured provider
// that fails outright aborts the call instead of degrading, so a backend
// outage is never masked.
//
// HybridRecall fuses independently-scored vector and keyword candidate sets
// with a weighted sum after normalizing keyword relevance into [0,1]; see
// fusion.go for the fixed normalization scheme.
//
// The engine owns no locks and no mutable state beyond its immutable
// configuration; one instance may be shared by any number of goroutines.
package engine
