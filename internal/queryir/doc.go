// Package queryir provides the query-builder capability that writers target
// and an in-memory select builder implementing it.
//
// Builder is the boundary between specification writers and a concrete
// backend. It exposes only the calls a data grid needs:
//
//	Where(expr, op, value)      direct condition, ANDed
//	WhereGroup(fn)              nested AND group
//	OrWhereGroup(fn)            nested group ORed with its predecessor
//	OrderBy(dir, exprs...)      ordering, left to right
//	Limit(n) / Offset(n)        bounds
//
// Select records those calls as a sealed predicate tree that backends
// (see querysql) render into their own query language.
//
// SEALED INTERFACES:
//
// Predicate is sealed using the marker method pattern. Only Condition and
// Group implement it, so renderers can switch exhaustively:
//
//	switch p := pred.(type) {
//	case Condition:
//	    // field op value
//	case Group:
//	    // parenthesized clauses
//	}
//
// Operators are the SQL-style tokens "=", "!=", "<", "<=", ">", ">=",
// "LIKE", "IN", "NOT IN". IN and NOT IN take a Parameter list.
package queryir
