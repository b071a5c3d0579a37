// Package session houses concrete implementations of core.MessageStore. The
// interface itself (and the Message struct) live in the core package to
// centralize domain contracts. Keeping only implementations here prevents
// higher level packages (engine, assembler) from depending on concrete
// storage.
//
// Additional backends (memory/postgres implements MessageStore as well) can
// be added without changing any calling code; only the wiring layer decides
// which implementation to instantiate.
package session
