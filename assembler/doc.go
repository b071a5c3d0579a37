// Package assembler composes recall output with recent session history into
// a single ContextPayload for injection into an agent's prompt. Assembly is
// pure given its inputs: the same query against an unchanged store yields an
// identical payload, and nothing is cached between calls.
package assembler
