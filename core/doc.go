// Package core defines the domain contracts shared across supaclaw: the
// Memory record, the recall query types, the Store and MessageStore
// interfaces and the error taxonomy. Implementations live in sibling
// packages (memory, session) and are selected at wiring time; depending on
// core alone keeps backends pluggable without dependency cycles.
package core
