// Package memory contains concrete Store implementations. The store
// interface and the ScoredMemory type reside in the core package; depend on
// core.Store in your code and select an implementation (the in-memory store
// below, memory/postgres, memory/chromem) at wiring time.
//
// Rationale: keeps domain contracts centralized while allowing pluggable
// backends (relational databases, embedded vector indexes) to be added
// without introducing dependency cycles.
package memory
