package schema

import (
	"fmt"
	"math"

	"github.com/roach88/datagrid/internal/ir"
	"github.com/roach88/datagrid/internal/spec"
	"github.com/roach88/datagrid/internal/value"
)

// Input is one request against a grid:
//
//	{
//	  "filter":   {"status": "active", "search": "jo"},
//	  "sort":     {"created": "desc"},
//	  "paginate": {"limit": 10, "page": 2}
//	}
//
// Values are raw and untrusted; validators decide what is usable.
type Input struct {
	Filters ir.IRObject
	Sort    ir.IRObject
	Limit   ir.IRValue
	Page    ir.IRValue
	Offset  ir.IRValue
}

// ParseInput reads an Input from a decoded request object. Missing sections
// are left empty; a section of the wrong shape is an error.
func ParseInput(raw ir.IRValue) (Input, error) {
	var in Input
	switch raw.(type) {
	case nil, ir.IRNull:
		return in, nil
	}
	obj, ok := raw.(ir.IRObject)
	if !ok {
		return in, fmt.Errorf("input must be an object, got %T", raw)
	}

	for _, key := range obj.SortedKeys() {
		switch key {
		case "filter", "sort", "paginate":
		default:
			return in, fmt.Errorf("unknown input section %q (want filter, sort or paginate)", key)
		}
	}

	var err error
	if in.Filters, err = section(obj, "filter"); err != nil {
		return in, err
	}
	if in.Sort, err = section(obj, "sort"); err != nil {
		return in, err
	}
	paginate, err := section(obj, "paginate")
	if err != nil {
		return in, err
	}
	in.Limit = optional(paginate["limit"])
	in.Page = optional(paginate["page"])
	in.Offset = optional(paginate["offset"])
	return in, nil
}

// optional treats an explicit null like an absent value.
func optional(v ir.IRValue) ir.IRValue {
	if _, isNull := v.(ir.IRNull); isNull {
		return nil
	}
	return v
}

func section(obj ir.IRObject, key string) (ir.IRObject, error) {
	switch v := obj[key].(type) {
	case nil, ir.IRNull:
		return ir.IRObject{}, nil
	case ir.IRObject:
		return v, nil
	default:
		return nil, fmt.Errorf("input %s must be an object, got %T", key, v)
	}
}

// Bound is the result of binding an Input to a grid. Specifications are
// free of placeholders and ready to compile.
type Bound struct {
	Grid       *Grid
	Filters    []spec.Specification
	Sorters    []spec.Specification
	Pagination []spec.Specification

	// Rejected lists inputs the grid knows but the validators refused,
	// e.g. "filter.status" or "paginate.limit".
	Rejected []string

	// Unknown lists inputs that name no filter or sorter of the grid.
	Unknown []string
}

// Specifications returns filters, then sorters, then pagination.
func (b Bound) Specifications() []spec.Specification {
	out := make([]spec.Specification, 0, len(b.Filters)+len(b.Sorters)+len(b.Pagination))
	out = append(out, b.Filters...)
	out = append(out, b.Sorters...)
	return append(out, b.Pagination...)
}

// Bind resolves in against the grid. It never fails: unusable input is
// reported in Rejected or Unknown and left out of the result.
//
// Filters and sorters are applied in declaration order. Literal-only
// filters are always applied and ignore input. Limits above the grid max
// are clamped; a page turns into an offset of (page-1)*limit.
func (g *Grid) Bind(in Input) Bound {
	b := Bound{Grid: g}

	known := make(map[string]bool, len(g.Filters))
	for _, nf := range g.Filters {
		known[nf.Name] = true
		if spec.Resolved(nf.Filter) {
			b.Filters = append(b.Filters, nf.Filter)
			continue
		}
		raw, ok := in.Filters[nf.Name]
		if !ok {
			continue
		}
		bound, ok := spec.WithValue(nf.Filter, raw)
		if !ok {
			b.Rejected = append(b.Rejected, "filter."+nf.Name)
			continue
		}
		b.Filters = append(b.Filters, bound)
	}
	b.Unknown = append(b.Unknown, unknownKeys("filter", in.Filters, known)...)

	known = make(map[string]bool, len(g.Sorters))
	for _, ns := range g.Sorters {
		known[ns.Name] = true
		raw, ok := in.Sort[ns.Name]
		if !ok {
			continue
		}
		sorter, ok := ns.Sorter.WithDirection(raw)
		if !ok {
			b.Rejected = append(b.Rejected, "sort."+ns.Name)
			continue
		}
		b.Sorters = append(b.Sorters, sorter)
	}
	b.Unknown = append(b.Unknown, unknownKeys("sort", in.Sort, known)...)

	b.bindPagination(in)
	return b
}

func (b *Bound) bindPagination(in Input) {
	p := b.Grid.Pagination

	limit, hasLimit := p.Limit, p.Limit > 0
	if in.Limit != nil {
		if n, ok := nonNegative(in.Limit); ok {
			limit, hasLimit = n, true
		} else {
			b.Rejected = append(b.Rejected, "paginate.limit")
		}
	}
	if p.Max > 0 && (!hasLimit || limit > p.Max) {
		limit, hasLimit = p.Max, true
	}
	if hasLimit {
		b.Pagination = append(b.Pagination, spec.Limit{N: limit})
	}

	switch {
	case in.Page != nil:
		page, ok := nonNegative(in.Page)
		// The offset (page-1)*limit must fit in an int.
		if !ok || page < 1 || !hasLimit || limit < 1 || page-1 > math.MaxInt/limit {
			b.Rejected = append(b.Rejected, "paginate.page")
			return
		}
		if page > 1 {
			b.Pagination = append(b.Pagination, spec.Offset{N: (page - 1) * limit})
		}
	case in.Offset != nil:
		offset, ok := nonNegative(in.Offset)
		if !ok {
			b.Rejected = append(b.Rejected, "paginate.offset")
			return
		}
		b.Pagination = append(b.Pagination, spec.Offset{N: offset})
	}
}

func nonNegative(raw ir.IRValue) (int, bool) {
	v := value.Int{}
	if !v.Accepts(raw) {
		return 0, false
	}
	n, _ := v.Convert(raw).(ir.IRInt)
	if n < 0 {
		return 0, false
	}
	return int(n), true
}

func unknownKeys(prefix string, obj ir.IRObject, known map[string]bool) []string {
	var out []string
	for _, key := range obj.SortedKeys() {
		if !known[key] {
			out = append(out, prefix+"."+key)
		}
	}
	return out
}
