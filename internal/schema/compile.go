package schema

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/datagrid/internal/ir"
	"github.com/roach88/datagrid/internal/spec"
	"github.com/roach88/datagrid/internal/value"
)

// CompileSchema compiles every field under "grid" in v. Grids that fail to
// compile are skipped and their errors collected.
func CompileSchema(v cue.Value) (*Schema, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	s := &Schema{}
	gridsVal := v.LookupPath(cue.ParsePath("grid"))
	if !gridsVal.Exists() {
		return s, nil
	}

	iter, err := gridsVal.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var errs []error
	for iter.Next() {
		g, err := CompileGrid(iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.Grids = append(s.Grids, g)
	}
	return s, errs
}

// CompileGrid parses one grid declaration. The grid is named after the last
// path selector of v, e.g. "users" for grid.users.
func CompileGrid(v cue.Value) (*Grid, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	g := &Grid{Pos: v.Pos()}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		g.Name = labels[len(labels)-1].Unquoted()
	}
	field := "grid." + g.Name

	// from (required)
	from, err := requiredString(v, "from", field)
	if err != nil {
		return nil, err
	}
	g.From = from

	// columns (optional, empty selects every column)
	if colsVal := v.LookupPath(cue.ParsePath("columns")); colsVal.Exists() {
		g.Columns, err = stringList(colsVal, field+".columns")
		if err != nil {
			return nil, err
		}
	}

	if filtersVal := v.LookupPath(cue.ParsePath("filters")); filtersVal.Exists() {
		iter, err := filtersVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name := iter.Selector().Unquoted()
			f, err := compileFilter(iter.Value(), field+".filters."+name)
			if err != nil {
				return nil, err
			}
			g.Filters = append(g.Filters, NamedFilter{Name: name, Filter: f})
		}
	}

	if sortersVal := v.LookupPath(cue.ParsePath("sorters")); sortersVal.Exists() {
		iter, err := sortersVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name := iter.Selector().Unquoted()
			s, err := compileSorter(iter.Value(), field+".sorters."+name)
			if err != nil {
				return nil, err
			}
			g.Sorters = append(g.Sorters, NamedSorter{Name: name, Sorter: s})
		}
	}

	if pageVal := v.LookupPath(cue.ParsePath("pagination")); pageVal.Exists() {
		g.Pagination, err = compilePagination(pageVal, field+".pagination")
		if err != nil {
			return nil, err
		}
	}

	return g, nil
}

// compileFilter parses a filter declaration:
//
//	{kind: "equals", expr: "status", value: <validator>}   placeholder
//	{kind: "equals", expr: "status", literal: "active"}    literal
//	{kind: "like", expr: "name", value: "string", pattern: "%s%%"}
//	{kind: "all" | "any", filters: [<filter>, ...]}
//	{kind: "map", entries: {<name>: <filter>, ...}}
func compileFilter(v cue.Value, field string) (spec.Filter, error) {
	kind, err := requiredString(v, "kind", field)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "all", "any":
		listVal := v.LookupPath(cue.ParsePath("filters"))
		if !listVal.Exists() {
			return nil, &CompileError{Field: field + ".filters", Message: kind + " requires filters", Pos: v.Pos()}
		}
		iter, err := listVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var children []spec.Filter
		for i := 0; iter.Next(); i++ {
			child, err := compileFilter(iter.Value(), fmt.Sprintf("%s.filters[%d]", field, i))
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if len(children) == 0 {
			return nil, &CompileError{Field: field + ".filters", Message: kind + " requires at least one filter", Pos: listVal.Pos()}
		}
		if kind == "all" {
			return spec.NewAll(children...), nil
		}
		return spec.NewAny(children...), nil

	case "map":
		entriesVal := v.LookupPath(cue.ParsePath("entries"))
		if !entriesVal.Exists() {
			return nil, &CompileError{Field: field + ".entries", Message: "map requires entries", Pos: v.Pos()}
		}
		iter, err := entriesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var entries []spec.MapEntry
		for iter.Next() {
			name := iter.Selector().Unquoted()
			child, err := compileFilter(iter.Value(), field+".entries."+name)
			if err != nil {
				return nil, err
			}
			entries = append(entries, spec.Named(name, child))
		}
		if len(entries) == 0 {
			return nil, &CompileError{Field: field + ".entries", Message: "map requires at least one entry", Pos: entriesVal.Pos()}
		}
		return spec.NewMap(entries...), nil
	}

	expr, err := requiredString(v, "expr", field)
	if err != nil {
		return nil, err
	}
	slot, err := compileSlot(v, field)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "equals":
		return spec.NewEquals(expr, slot), nil
	case "not_equals":
		return spec.NewNotEquals(expr, slot), nil
	case "lt":
		return spec.NewLt(expr, slot), nil
	case "lte":
		return spec.NewLte(expr, slot), nil
	case "gt":
		return spec.NewGt(expr, slot), nil
	case "gte":
		return spec.NewGte(expr, slot), nil
	case "like":
		pattern := spec.DefaultLikePattern
		if pv := v.LookupPath(cue.ParsePath("pattern")); pv.Exists() {
			pattern, err = pv.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
		}
		return spec.NewLikePattern(expr, pattern, slot), nil
	case "in":
		return spec.NewInArray(expr, slot), nil
	case "not_in":
		return spec.NewNotInArray(expr, slot), nil
	default:
		return nil, &CompileError{
			Field:   field + ".kind",
			Message: fmt.Sprintf("unknown filter kind %q", kind),
			Pos:     v.LookupPath(cue.ParsePath("kind")).Pos(),
		}
	}
}

// compileSlot reads either "literal" or "value" (a validator) from v.
func compileSlot(v cue.Value, field string) (spec.Slot, error) {
	litVal := v.LookupPath(cue.ParsePath("literal"))
	valVal := v.LookupPath(cue.ParsePath("value"))

	switch {
	case litVal.Exists() && valVal.Exists():
		return nil, &CompileError{Field: field, Message: "literal and value are mutually exclusive", Pos: v.Pos()}
	case litVal.Exists():
		lit, err := toIR(litVal, field+".literal")
		if err != nil {
			return nil, err
		}
		return spec.Lit(lit), nil
	case valVal.Exists():
		validator, err := compileValidator(valVal, field+".value")
		if err != nil {
			return nil, err
		}
		return spec.Expect(validator), nil
	default:
		return nil, &CompileError{Field: field, Message: "filter requires literal or value", Pos: v.Pos()}
	}
}

// compileValidator parses a validator declaration:
//
//	"any" | "string" | "int" | "bool"
//	{string: {allow_empty: true}}
//	{regex: "^[a-z]+$"}
//	{uuid: "v4"}
//	{array: <validator>}
//	{enum | intersect | subset: {of: <validator>, values: [...]}}
func compileValidator(v cue.Value, field string) (value.Validator, error) {
	if v.Kind() == cue.StringKind {
		name, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		switch name {
		case "any":
			return value.Any{}, nil
		case "string":
			return value.String{}, nil
		case "int":
			return value.Int{}, nil
		case "bool":
			return value.Bool{}, nil
		default:
			return nil, &CompileError{Field: field, Message: fmt.Sprintf("unknown validator %q", name), Pos: v.Pos()}
		}
	}

	if v.Kind() != cue.StructKind {
		return nil, &CompileError{Field: field, Message: "validator must be a name or a struct", Pos: v.Pos()}
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if !iter.Next() {
		return nil, &CompileError{Field: field, Message: "empty validator", Pos: v.Pos()}
	}
	name := iter.Selector().Unquoted()
	arg := iter.Value()
	if iter.Next() {
		return nil, &CompileError{Field: field, Message: "validator struct must have exactly one field", Pos: v.Pos()}
	}
	field += "." + name

	switch name {
	case "string":
		allow := arg.LookupPath(cue.ParsePath("allow_empty"))
		s := value.String{}
		if allow.Exists() {
			if s.AllowEmpty, err = allow.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		return s, nil
	case "regex":
		pattern, err := arg.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		r, err := value.NewRegex(pattern)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: arg.Pos()}
		}
		return r, nil
	case "uuid":
		mask, err := arg.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		u, err := value.NewUUID(mask)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: arg.Pos()}
		}
		return u, nil
	case "array":
		inner, err := compileValidator(arg, field)
		if err != nil {
			return nil, err
		}
		return value.NewArray(inner), nil
	case "enum", "intersect", "subset":
		return compileSet(name, arg, field)
	default:
		return nil, &CompileError{Field: field, Message: fmt.Sprintf("unknown validator %q", name), Pos: v.Pos()}
	}
}

// compileSet parses {of: <validator>, values: [...]} for the set validators.
func compileSet(name string, v cue.Value, field string) (value.Validator, error) {
	ofVal := v.LookupPath(cue.ParsePath("of"))
	if !ofVal.Exists() {
		return nil, &CompileError{Field: field + ".of", Message: name + " requires an inner validator", Pos: v.Pos()}
	}
	inner, err := compileValidator(ofVal, field+".of")
	if err != nil {
		return nil, err
	}

	valuesVal := v.LookupPath(cue.ParsePath("values"))
	if !valuesVal.Exists() {
		return nil, &CompileError{Field: field + ".values", Message: name + " requires values", Pos: v.Pos()}
	}
	raw, err := toIR(valuesVal, field+".values")
	if err != nil {
		return nil, err
	}
	allowed, ok := raw.(ir.IRArray)
	if !ok {
		return nil, &CompileError{Field: field + ".values", Message: "values must be a list", Pos: valuesVal.Pos()}
	}

	var validator value.Validator
	switch name {
	case "enum":
		validator, err = value.NewEnum(inner, allowed...)
	case "intersect":
		validator, err = value.NewIntersect(inner, allowed...)
	default:
		validator, err = value.NewSubset(inner, allowed...)
	}
	if err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: valuesVal.Pos()}
	}
	return validator, nil
}

// compileSorter parses a sorter declaration:
//
//	"name"                          same expressions both ways
//	["created_at", "id"]
//	{asc: ["name"], desc: ["name", "id"]}
func compileSorter(v cue.Value, field string) (spec.Directional, error) {
	switch v.Kind() {
	case cue.StringKind:
		expr, err := v.String()
		if err != nil {
			return spec.Directional{}, formatCUEError(err)
		}
		return spec.NewDirectional(expr), nil
	case cue.ListKind:
		exprs, err := stringList(v, field)
		if err != nil {
			return spec.Directional{}, err
		}
		if len(exprs) == 0 {
			return spec.Directional{}, &CompileError{Field: field, Message: "sorter requires at least one expression", Pos: v.Pos()}
		}
		return spec.NewDirectional(exprs...), nil
	case cue.StructKind:
		ascVal := v.LookupPath(cue.ParsePath("asc"))
		descVal := v.LookupPath(cue.ParsePath("desc"))
		if !ascVal.Exists() || !descVal.Exists() {
			return spec.Directional{}, &CompileError{Field: field, Message: "sorter requires both asc and desc", Pos: v.Pos()}
		}
		asc, err := stringList(ascVal, field+".asc")
		if err != nil {
			return spec.Directional{}, err
		}
		desc, err := stringList(descVal, field+".desc")
		if err != nil {
			return spec.Directional{}, err
		}
		return spec.Directional{Asc: spec.Asc(asc...), Desc: spec.Desc(desc...)}, nil
	default:
		return spec.Directional{}, &CompileError{Field: field, Message: "sorter must be a string, a list or {asc, desc}", Pos: v.Pos()}
	}
}

func compilePagination(v cue.Value, field string) (Pagination, error) {
	var p Pagination
	for _, f := range []struct {
		name string
		dst  *int
	}{{"limit", &p.Limit}, {"max", &p.Max}} {
		fv := v.LookupPath(cue.ParsePath(f.name))
		if !fv.Exists() {
			continue
		}
		n, err := fv.Int64()
		if err != nil {
			return Pagination{}, formatCUEError(err)
		}
		if n < 0 {
			return Pagination{}, &CompileError{Field: field + "." + f.name, Message: "must be non-negative", Pos: fv.Pos()}
		}
		*f.dst = int(n)
	}
	if p.Max > 0 && p.Limit > p.Max {
		return Pagination{}, &CompileError{
			Field:   field + ".limit",
			Message: fmt.Sprintf("default limit %d exceeds max %d", p.Limit, p.Max),
			Pos:     v.Pos(),
		}
	}
	return p, nil
}

func requiredString(v cue.Value, name, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", &CompileError{Field: field + "." + name, Message: name + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if s == "" {
		return "", &CompileError{Field: field + "." + name, Message: name + " must not be empty", Pos: fv.Pos()}
	}
	return s, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// toIR converts a concrete CUE value to an IRValue. Floats are rejected.
func toIR(v cue.Value, field string) (ir.IRValue, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.IRNull{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.IRArray{}
		for i := 0; iter.Next(); i++ {
			elem, err := toIR(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			name := iter.Selector().Unquoted()
			elem, err := toIR(iter.Value(), field+"."+name)
			if err != nil {
				return nil, err
			}
			obj[name] = elem
		}
		return obj, nil
	case cue.FloatKind:
		return nil, &CompileError{Field: field, Message: "floats are not supported, use int or string", Pos: v.Pos()}
	default:
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		return nil, &CompileError{Field: field, Message: "value must be concrete", Pos: v.Pos()}
	}
}
