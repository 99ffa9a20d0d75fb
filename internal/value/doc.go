// Package value provides validators that sanitize untrusted input before it
// reaches query construction.
//
// A Validator is a pure predicate plus converter pair:
//
//	if v.Accepts(raw) {
//	    literal := v.Convert(raw)
//	}
//
// Accepts is total: malformed input yields false, never a panic or error.
// A false result is ordinary control flow for the binding layer (drop the
// filter, report the field), not a failure. Convert is only defined for
// input that Accepts returned true for.
//
// Combinators (Enum, Intersect, Subset, Array) are built from an inner
// validator and never reveal which inner check rejected a value.
// Constructors with configuration fail fast with ErrInvalidArgument.
package value
