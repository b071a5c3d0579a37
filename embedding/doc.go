// Package embedding abstracts the external embedding-vector service behind
// the Provider interface. The recall engine only distinguishes three
// outcomes of Embed: a vector (semantic retrieval possible), ErrUnavailable
// (no provider configured or embeddings disabled, keyword fallback), or a
// *ProviderError (configured provider failed, fatal: the caller decides to
// abort rather than silently degrade).
//
// Concrete providers live in subpackages (openai, mock). Cached decorates
// any provider with a TTL memoization layer, which is sound because Embed is
// idempotent for a fixed model configuration.
package embedding
