package spec

import (
	"github.com/roach88/datagrid/internal/ir"
	"github.com/roach88/datagrid/internal/value"
)

// Specification is any declarative filter, sorter or pagination node.
//
// This is a sealed interface - only types in this package implement it.
// It carries no behavior; it is the tag the compiler dispatches on.
type Specification interface {
	specification() // Marker method - seals interface to this package
}

// Filter is a Specification that constrains which rows match.
type Filter interface {
	Specification
	filter()
}

// Slot is the value position of an atomic filter: either a Literal or an
// unresolved Placeholder.
type Slot interface {
	slot()
}

// Literal is a concrete, already validated value.
type Literal struct {
	Value ir.IRValue
}

func (Literal) slot() {}

// Placeholder marks a slot that still expects caller input of the shape the
// validator accepts.
type Placeholder struct {
	Validator value.Validator
}

func (Placeholder) slot() {}

// Lit wraps a literal value.
func Lit(v ir.IRValue) Slot {
	return Literal{Value: v}
}

// Expect declares a slot that must be resolved against input accepted by v.
func Expect(v value.Validator) Slot {
	return Placeholder{Validator: v}
}

// Expression is the shared shape of atomic filters: a target expression
// (a field name such as "status" or "users.status") and a value slot.
type Expression struct {
	Expr  string
	Value Slot
}

// Base returns the expression and slot of an atomic filter.
func (e Expression) Base() Expression { return e }

// Atomic is implemented by every single-expression filter.
type Atomic interface {
	Filter
	Base() Expression
	withSlot(Slot) Atomic
}

// Equals matches rows where Expr = Value.
type Equals struct{ Expression }

// NotEquals matches rows where Expr != Value.
type NotEquals struct{ Expression }

// Lt matches rows where Expr < Value.
type Lt struct{ Expression }

// Lte matches rows where Expr <= Value.
type Lte struct{ Expression }

// Gt matches rows where Expr > Value.
type Gt struct{ Expression }

// Gte matches rows where Expr >= Value.
type Gte struct{ Expression }

// Like matches rows where Expr LIKE fmt.Sprintf(Pattern, Value).
type Like struct {
	Expression
	Pattern string
}

// InArray matches rows where Expr is one of the values in the slot.
type InArray struct{ Expression }

// NotInArray matches rows where Expr is none of the values in the slot.
type NotInArray struct{ Expression }

// DefaultLikePattern matches the value anywhere in the expression.
const DefaultLikePattern = "%%%s%%"

func NewEquals(expr string, v Slot) Equals       { return Equals{Expression{expr, v}} }
func NewNotEquals(expr string, v Slot) NotEquals { return NotEquals{Expression{expr, v}} }
func NewLt(expr string, v Slot) Lt               { return Lt{Expression{expr, v}} }
func NewLte(expr string, v Slot) Lte             { return Lte{Expression{expr, v}} }
func NewGt(expr string, v Slot) Gt               { return Gt{Expression{expr, v}} }
func NewGte(expr string, v Slot) Gte             { return Gte{Expression{expr, v}} }

// NewLike creates a Like filter with DefaultLikePattern.
func NewLike(expr string, v Slot) Like {
	return NewLikePattern(expr, DefaultLikePattern, v)
}

// NewLikePattern creates a Like filter with a printf-style pattern that has
// exactly one %s verb, e.g. "%s%%" for prefix matching.
func NewLikePattern(expr, pattern string, v Slot) Like {
	return Like{Expression: Expression{expr, v}, Pattern: pattern}
}

// NewInArray creates an InArray filter. Scalar placeholders are wrapped in
// value.Array and scalar literals in a one-element IRArray, so the slot
// always describes a list.
func NewInArray(expr string, v Slot) InArray {
	return InArray{Expression{expr, listSlot(v)}}
}

// NewNotInArray is the negated form of NewInArray.
func NewNotInArray(expr string, v Slot) NotInArray {
	return NotInArray{Expression{expr, listSlot(v)}}
}

func listSlot(v Slot) Slot {
	switch s := v.(type) {
	case Placeholder:
		if s.Validator != nil && !value.IsCollection(s.Validator) {
			return Placeholder{Validator: value.NewArray(s.Validator)}
		}
	case Literal:
		if _, ok := s.Value.(ir.IRArray); !ok && s.Value != nil {
			return Literal{Value: ir.IRArray{s.Value}}
		}
	}
	return v
}

// All requires every child filter to match (AND).
type All struct {
	Filters []Filter
}

// Any requires at least one child filter to match (OR).
type Any struct {
	Filters []Filter
}

// MapEntry is a named child of a Map filter.
type MapEntry struct {
	Name   string
	Filter Filter
}

// Map groups named filters that are bound from one object-shaped input, one
// key per entry. Children are ANDed like All.
type Map struct {
	Entries []MapEntry
}

// NewAll creates an All over copies of filters.
func NewAll(filters ...Filter) All {
	return All{Filters: append([]Filter(nil), filters...)}
}

// NewAny creates an Any over copies of filters.
func NewAny(filters ...Filter) Any {
	return Any{Filters: append([]Filter(nil), filters...)}
}

// Named pairs a name with a filter for NewMap.
func Named(name string, f Filter) MapEntry {
	return MapEntry{Name: name, Filter: f}
}

// NewMap creates a Map preserving entry order.
func NewMap(entries ...MapEntry) Map {
	return Map{Entries: append([]MapEntry(nil), entries...)}
}

// Children returns the child filters in entry order.
func (m Map) Children() []Filter {
	out := make([]Filter, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Filter
	}
	return out
}

// Marker methods.

func (Equals) specification()     {}
func (NotEquals) specification()  {}
func (Lt) specification()         {}
func (Lte) specification()        {}
func (Gt) specification()         {}
func (Gte) specification()        {}
func (Like) specification()       {}
func (InArray) specification()    {}
func (NotInArray) specification() {}
func (All) specification()        {}
func (Any) specification()        {}
func (Map) specification()        {}

func (Equals) filter()     {}
func (NotEquals) filter()  {}
func (Lt) filter()         {}
func (Lte) filter()        {}
func (Gt) filter()         {}
func (Gte) filter()        {}
func (Like) filter()       {}
func (InArray) filter()    {}
func (NotInArray) filter() {}
func (All) filter()        {}
func (Any) filter()        {}
func (Map) filter()        {}

func (f Equals) withSlot(s Slot) Atomic     { f.Value = s; return f }
func (f NotEquals) withSlot(s Slot) Atomic  { f.Value = s; return f }
func (f Lt) withSlot(s Slot) Atomic         { f.Value = s; return f }
func (f Lte) withSlot(s Slot) Atomic        { f.Value = s; return f }
func (f Gt) withSlot(s Slot) Atomic         { f.Value = s; return f }
func (f Gte) withSlot(s Slot) Atomic        { f.Value = s; return f }
func (f Like) withSlot(s Slot) Atomic       { f.Value = s; return f }
func (f InArray) withSlot(s Slot) Atomic    { f.Value = s; return f }
func (f NotInArray) withSlot(s Slot) Atomic { f.Value = s; return f }
