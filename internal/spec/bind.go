package spec

import (
	"github.com/roach88/datagrid/internal/ir"
)

// WithValue resolves the placeholders of f against raw caller input and
// returns the bound filter. ok is false when the input is rejected; that is
// a validation outcome, not an error.
//
// Rules:
//   - Atomic filter with a placeholder: accepted input is converted into a
//     Literal; rejected input rejects the filter.
//   - Atomic filter with a literal: returned unchanged, raw is ignored.
//   - All: raw is offered to every child; any rejected child rejects the All.
//   - Any: raw is offered to every child; rejected children are dropped and
//     the Any is rejected only when no child survives.
//   - Map: raw must be an IRObject; each entry is bound with raw[entry.Name].
//     A missing key or rejected entry rejects the Map.
func WithValue(f Filter, raw ir.IRValue) (Filter, bool) {
	switch node := Unwrap(f).(type) {
	case Atomic:
		return bindAtomic(node, raw)
	case All:
		children := make([]Filter, 0, len(node.Filters))
		for _, child := range node.Filters {
			bound, ok := WithValue(child, raw)
			if !ok {
				return nil, false
			}
			children = append(children, bound)
		}
		return All{Filters: children}, true
	case Any:
		children := make([]Filter, 0, len(node.Filters))
		for _, child := range node.Filters {
			if bound, ok := WithValue(child, raw); ok {
				children = append(children, bound)
			}
		}
		if len(children) == 0 && len(node.Filters) > 0 {
			return nil, false
		}
		return Any{Filters: children}, true
	case Map:
		obj, isObj := raw.(ir.IRObject)
		if !isObj {
			return nil, false
		}
		entries := make([]MapEntry, 0, len(node.Entries))
		for _, entry := range node.Entries {
			input, exists := obj[entry.Name]
			if !exists {
				return nil, false
			}
			bound, ok := WithValue(entry.Filter, input)
			if !ok {
				return nil, false
			}
			entries = append(entries, MapEntry{Name: entry.Name, Filter: bound})
		}
		return Map{Entries: entries}, true
	default:
		return nil, false
	}
}

func bindAtomic(f Atomic, raw ir.IRValue) (Filter, bool) {
	placeholder, ok := f.Base().Value.(Placeholder)
	if !ok {
		return f, true
	}
	if placeholder.Validator == nil || !placeholder.Validator.Accepts(raw) {
		return nil, false
	}
	return f.withSlot(Literal{Value: placeholder.Validator.Convert(raw)}), true
}

// Resolved reports whether s is free of placeholders. Sorters and pagination
// are always resolved; a Directional sorter is not.
func Resolved(s Specification) bool {
	switch node := Unwrap(s).(type) {
	case nil:
		return true
	case Atomic:
		_, literal := node.Base().Value.(Literal)
		return literal
	case All:
		return allResolved(node.Filters)
	case Any:
		return allResolved(node.Filters)
	case Map:
		return allResolved(node.Children())
	case Directional:
		return false
	default:
		return true
	}
}

func allResolved(filters []Filter) bool {
	for _, f := range filters {
		if !Resolved(f) {
			return false
		}
	}
	return true
}

// Unwrap returns the value form of pointer specifications so type switches
// only need value cases. Nil pointers become nil.
func Unwrap(s Specification) Specification {
	switch v := s.(type) {
	case *Equals:
		return deref(v)
	case *NotEquals:
		return deref(v)
	case *Lt:
		return deref(v)
	case *Lte:
		return deref(v)
	case *Gt:
		return deref(v)
	case *Gte:
		return deref(v)
	case *Like:
		return deref(v)
	case *InArray:
		return deref(v)
	case *NotInArray:
		return deref(v)
	case *All:
		return deref(v)
	case *Any:
		return deref(v)
	case *Map:
		return deref(v)
	case *Sorter:
		return deref(v)
	case *Directional:
		return deref(v)
	case *Limit:
		return deref(v)
	case *Offset:
		return deref(v)
	default:
		return s
	}
}

func deref[T Specification](p *T) Specification {
	if p == nil {
		return nil
	}
	return *p
}
