// Package compiler applies specification trees to query targets through an
// ordered list of pluggable writers.
//
// ARCHITECTURE:
//
//	[spec tree] --Compile--> Writer 1 --> target calls
//	                     \-> Writer 2 (tried if 1 declines)
//	                     \-> unhandled (no writer accepted)
//
// Each specification is offered to the writers in order; the first writer
// that reports handled owns the node. Writers recognizing a combinator call
// back into Compile for the children, usually against a nested group of the
// same target.
//
// OUTCOMES:
//
//   - handled: the writer emitted target calls.
//   - unhandled: no writer recognized the node or the target type. This is
//     neutral and returned to the caller, so several writers and target
//     types can coexist.
//   - error: a writer recognized the node but could not write it, most
//     importantly when a value slot still holds a placeholder
//     (ErrCodeUnresolvedValue). Targets implementing Checkpointer are rolled
//     back so errors never leave partial state behind.
//
// A Compiler holds no per-call state and may be shared between goroutines;
// callers must not compile concurrently into the same target.
package compiler
