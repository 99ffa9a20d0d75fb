// Package spec defines the declarative specification model: filters,
// sorters and pagination bounds.
//
// Specification and Filter are sealed interfaces using the marker method
// pattern, so writers can switch exhaustively over the node kinds:
//
//	switch s := spec.Unwrap(node).(type) {
//	case spec.All, spec.Map:
//	    // AND group
//	case spec.Any:
//	    // OR groups
//	case spec.Equals:
//	    // expr = value
//	default:
//	    // not ours - report unhandled
//	}
//
// VALUE SLOTS:
//
// Every atomic filter carries a Slot that is either a Literal or a
// Placeholder wrapping a value.Validator. Placeholders describe the input a
// filter expects; WithValue resolves them against raw caller input. Writers
// must only ever see literals, which Resolved lets callers verify.
//
// All nodes are immutable values. Constructors copy their slice arguments
// and WithValue returns new nodes, so one tree can be bound and compiled
// many times.
package spec
