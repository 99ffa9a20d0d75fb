package value

import (
	"fmt"

	"github.com/roach88/datagrid/internal/ir"
)

// Enum accepts a value only if the inner validator accepts it AND the
// converted value is one of a fixed allowed set.
type Enum struct {
	inner   Validator
	allowed []ir.IRValue
}

// NewEnum creates an Enum over inner. At least one allowed value is required.
func NewEnum(inner Validator, allowed ...ir.IRValue) (Enum, error) {
	if inner == nil {
		return Enum{}, fmt.Errorf("%w: enum requires an inner validator", ErrInvalidArgument)
	}
	if len(allowed) == 0 {
		return Enum{}, fmt.Errorf("%w: enum requires at least one allowed value", ErrInvalidArgument)
	}
	return Enum{inner: inner, allowed: append([]ir.IRValue(nil), allowed...)}, nil
}

// Allowed returns a copy of the allowed set.
func (e Enum) Allowed() []ir.IRValue {
	return append([]ir.IRValue(nil), e.allowed...)
}

func (e Enum) Accepts(raw ir.IRValue) bool {
	if e.inner == nil || !e.inner.Accepts(raw) {
		return false
	}
	converted := e.inner.Convert(raw)
	for _, a := range e.allowed {
		if ir.Equal(converted, a) {
			return true
		}
	}
	return false
}

func (e Enum) Convert(raw ir.IRValue) ir.IRValue {
	return e.inner.Convert(raw)
}

// Intersect wraps an Enum and takes either a scalar or a sequence.
//
// Multi-element input is accepted when at least one element is accepted;
// Convert keeps the accepted elements in order and silently drops the rest.
// The result of Convert is always an IRArray.
type Intersect struct {
	enum Enum
}

// NewIntersect creates an Intersect over Enum(inner, allowed...).
func NewIntersect(inner Validator, allowed ...ir.IRValue) (Intersect, error) {
	enum, err := NewEnum(inner, allowed...)
	if err != nil {
		return Intersect{}, err
	}
	return Intersect{enum: enum}, nil
}

func (i Intersect) Accepts(raw ir.IRValue) bool {
	values := asSequence(raw)
	if len(values) == 1 {
		return i.enum.Accepts(values[0])
	}
	for _, v := range values {
		if i.enum.Accepts(v) {
			return true
		}
	}
	return false
}

func (i Intersect) Convert(raw ir.IRValue) ir.IRValue {
	out := ir.IRArray{}
	for _, v := range asSequence(raw) {
		if i.enum.Accepts(v) {
			out = append(out, i.enum.Convert(v))
		}
	}
	return out
}

// Subset is the strict counterpart of Intersect: every element of the input
// must be accepted by the Enum.
type Subset struct {
	enum Enum
}

// NewSubset creates a Subset over Enum(inner, allowed...).
func NewSubset(inner Validator, allowed ...ir.IRValue) (Subset, error) {
	enum, err := NewEnum(inner, allowed...)
	if err != nil {
		return Subset{}, err
	}
	return Subset{enum: enum}, nil
}

func (s Subset) Accepts(raw ir.IRValue) bool {
	values := asSequence(raw)
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if !s.enum.Accepts(v) {
			return false
		}
	}
	return true
}

func (s Subset) Convert(raw ir.IRValue) ir.IRValue {
	values := asSequence(raw)
	out := make(ir.IRArray, len(values))
	for i, v := range values {
		out[i] = s.enum.Convert(v)
	}
	return out
}

// asSequence treats an IRArray as its elements and any other value as a
// one-element sequence. nil becomes an empty sequence.
func asSequence(raw ir.IRValue) []ir.IRValue {
	switch v := raw.(type) {
	case nil:
		return nil
	case ir.IRArray:
		return v
	default:
		return []ir.IRValue{v}
	}
}
