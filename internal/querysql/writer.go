package querysql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/datagrid/internal/compiler"
	"github.com/roach88/datagrid/internal/ir"
	"github.com/roach88/datagrid/internal/queryir"
	"github.com/roach88/datagrid/internal/spec"
)

// identifier matches "name" or "table.name".
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidIdentifier reports whether expr can be written into a query verbatim.
func ValidIdentifier(expr string) bool {
	return identifier.MatchString(expr)
}

// Writer writes filters, sorters and pagination into a queryir.Builder.
//
// Mapping:
//
//	All, Map        WhereGroup(children ANDed)
//	Any             WhereGroup(OrWhereGroup(child) per child)
//	Equals ... Gte  Where(expr, "=" ... ">=", value)
//	Like            Where(expr, "LIKE", fmt.Sprintf(pattern, value))
//	InArray         Where(expr, "IN", queryir.Parameter)
//	NotInArray      Where(expr, "NOT IN", queryir.Parameter)
//	Sorter          OrderBy(direction, exprs...)
//	Limit, Offset   Limit(n), Offset(n)
//
// A recognized node is checked in full before any builder call, so a
// placeholder, a non-identifier expression or a negative bound anywhere in
// it leaves the target untouched.
type Writer struct{}

// NewWriter creates a Writer.
func NewWriter() Writer {
	return Writer{}
}

var _ compiler.Writer = Writer{}

// Write implements compiler.Writer. A nil c compiles combinator children
// with this writer alone. A nil *queryir.Select is not a usable target.
func (w Writer) Write(target any, s spec.Specification, c *compiler.Compiler) (bool, error) {
	b, ok := target.(queryir.Builder)
	if !ok {
		return false, nil
	}
	if sel, isSelect := b.(*queryir.Select); isSelect && sel == nil {
		return false, nil
	}

	node := spec.Unwrap(s)
	if !recognized(node) {
		return false, nil
	}
	if err := check(node); err != nil {
		return false, err
	}
	if c == nil {
		c = compiler.New([]compiler.Writer{w})
	}
	return true, w.write(b, node, c)
}

func recognized(node spec.Specification) bool {
	switch node.(type) {
	case spec.All, spec.Any, spec.Map, spec.Atomic,
		spec.Sorter, spec.Directional, spec.Limit, spec.Offset:
		return true
	default:
		return false
	}
}

func (w Writer) write(b queryir.Builder, node spec.Specification, c *compiler.Compiler) error {
	switch n := node.(type) {
	case spec.All:
		return writeAll(b, n.Filters, c)
	case spec.Map:
		return writeAll(b, n.Children(), c)
	case spec.Any:
		var err error
		b.WhereGroup(func(g queryir.Builder) {
			for _, child := range n.Filters {
				g.OrWhereGroup(func(og queryir.Builder) {
					if err == nil {
						_, err = c.Compile(og, child)
					}
				})
			}
		})
		return err
	case spec.Atomic:
		op, value, err := condition(n)
		if err != nil {
			return err
		}
		b.Where(n.Base().Expr, op, value)
		return nil
	case spec.Sorter:
		if len(n.Expressions) > 0 {
			b.OrderBy(direction(n.Direction), n.Expressions...)
		}
		return nil
	case spec.Limit:
		b.Limit(n.N)
		return nil
	case spec.Offset:
		b.Offset(n.N)
		return nil
	default:
		return fmt.Errorf("unexpected specification %T", node)
	}
}

func writeAll(b queryir.Builder, filters []spec.Filter, c *compiler.Compiler) error {
	children := make([]spec.Specification, len(filters))
	for i, f := range filters {
		children[i] = f
	}
	var err error
	b.WhereGroup(func(g queryir.Builder) {
		_, err = c.Compile(g, children...)
	})
	return err
}

func direction(d spec.Direction) queryir.Direction {
	if d == spec.Descending {
		return queryir.Desc
	}
	return queryir.Asc
}

// check validates node and every recognized node below it.
func check(node spec.Specification) error {
	kind := compiler.Kind(node)
	switch n := node.(type) {
	case spec.All:
		return checkFilters(n.Filters)
	case spec.Any:
		return checkFilters(n.Filters)
	case spec.Map:
		return checkFilters(n.Children())
	case spec.Atomic:
		base := n.Base()
		if _, ok := base.Value.(spec.Literal); !ok {
			return compiler.NewUnresolvedValueError(kind, base.Expr)
		}
		if !ValidIdentifier(base.Expr) {
			return compiler.NewInvalidExpressionError(kind, base.Expr)
		}
		_, _, err := condition(n)
		return err
	case spec.Directional:
		return compiler.NewUnresolvedValueError(kind, strings.Join(n.Asc.Expressions, ", "))
	case spec.Sorter:
		for _, expr := range n.Expressions {
			if !ValidIdentifier(expr) {
				return compiler.NewInvalidExpressionError(kind, expr)
			}
		}
	case spec.Limit:
		if n.N < 0 {
			return compiler.NewInvalidPaginationError(kind, n.N)
		}
	case spec.Offset:
		if n.N < 0 {
			return compiler.NewInvalidPaginationError(kind, n.N)
		}
	}
	return nil
}

func checkFilters(filters []spec.Filter) error {
	for _, f := range filters {
		if err := check(spec.Unwrap(f)); err != nil {
			return err
		}
	}
	return nil
}

// condition returns the operator and builder value for a resolved atomic
// filter.
func condition(f spec.Atomic) (string, any, error) {
	base := f.Base()
	kind := compiler.Kind(f)
	lit, ok := base.Value.(spec.Literal)
	if !ok {
		return "", nil, compiler.NewUnresolvedValueError(kind, base.Expr)
	}

	switch n := f.(type) {
	case spec.InArray:
		p, err := listParam(lit.Value)
		if err != nil {
			return "", nil, compiler.NewInvalidValueError(kind, base.Expr, err)
		}
		return queryir.OpIn, p, nil
	case spec.NotInArray:
		p, err := listParam(lit.Value)
		if err != nil {
			return "", nil, compiler.NewInvalidValueError(kind, base.Expr, err)
		}
		return queryir.OpNotIn, p, nil
	case spec.Like:
		v, err := scalarParam(lit.Value)
		if err != nil {
			return "", nil, compiler.NewInvalidValueError(kind, base.Expr, err)
		}
		pattern, err := likePattern(n.Pattern, v)
		if err != nil {
			return "", nil, compiler.NewInvalidValueError(kind, base.Expr, err)
		}
		return queryir.OpLike, pattern, nil
	}

	op, ok := operators(f)
	if !ok {
		return "", nil, fmt.Errorf("no operator for %s", kind)
	}
	v, err := scalarParam(lit.Value)
	if err != nil {
		return "", nil, compiler.NewInvalidValueError(kind, base.Expr, err)
	}
	return op, v, nil
}

func operators(f spec.Atomic) (string, bool) {
	switch f.(type) {
	case spec.Equals:
		return queryir.OpEq, true
	case spec.NotEquals:
		return queryir.OpNe, true
	case spec.Lt:
		return queryir.OpLt, true
	case spec.Lte:
		return queryir.OpLte, true
	case spec.Gt:
		return queryir.OpGt, true
	case spec.Gte:
		return queryir.OpGte, true
	default:
		return "", false
	}
}

func scalarParam(v ir.IRValue) (any, error) {
	switch v.(type) {
	case ir.IRArray, ir.IRObject:
		return nil, fmt.Errorf("expected a scalar value, got %T", v)
	}
	return ir.ToParam(v)
}

// listParam converts a literal into an IN parameter. A scalar becomes a
// one-element list.
func listParam(v ir.IRValue) (queryir.Parameter, error) {
	arr, ok := v.(ir.IRArray)
	if !ok {
		arr = ir.IRArray{v}
	}
	values := make([]any, len(arr))
	for i, elem := range arr {
		p, err := scalarParam(elem)
		if err != nil {
			return queryir.Parameter{}, fmt.Errorf("[%d]: %w", i, err)
		}
		values[i] = p
	}
	return queryir.Parameter{Values: values}, nil
}

// likePattern substitutes v into a printf pattern with one %s verb.
func likePattern(pattern string, v any) (string, error) {
	if pattern == "" {
		pattern = spec.DefaultLikePattern
	}
	if strings.Count(strings.ReplaceAll(pattern, "%%", ""), "%s") != 1 ||
		strings.Contains(fmt.Sprintf(pattern, ""), "%!") {
		return "", fmt.Errorf("like pattern %q must contain exactly one %%s verb", pattern)
	}
	if v == nil {
		return "", fmt.Errorf("like value must not be null")
	}
	return fmt.Sprintf(pattern, fmt.Sprint(v)), nil
}
