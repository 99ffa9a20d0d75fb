package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/roach88/datagrid/internal/ir"
	"github.com/roach88/datagrid/internal/queryir"
)

// Dialect selects placeholder and quoting rules.
type Dialect string

const (
	// DialectSQLite uses ? placeholders and unquoted identifiers.
	DialectSQLite Dialect = "sqlite"

	// DialectPostgres uses $n placeholders and quoted identifiers.
	DialectPostgres Dialect = "postgres"
)

// ParseDialect returns the dialect named s.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case DialectSQLite, DialectPostgres:
		return d, nil
	case "postgresql", "pgx":
		return DialectPostgres, nil
	case "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unknown SQL dialect %q (want sqlite or postgres)", s)
	}
}

// SQLCompiler renders a queryir.Select to parameterized SQL.
//
// CRITICAL: values are never interpolated; every value is a parameter.
// Identifiers are validated before they are written.
type SQLCompiler struct {
	Dialect Dialect

	// StableOrder, when set, is appended to every ORDER BY as an ascending
	// tiebreaker unless the query already orders by it. Pages over a
	// non-unique sort key are only deterministic with a tiebreaker.
	StableOrder string
}

// NewSQLCompiler creates a compiler for dialect without a tiebreaker.
func NewSQLCompiler(dialect Dialect) *SQLCompiler {
	return &SQLCompiler{Dialect: dialect}
}

// Compile converts q to SQL text and its parameters.
func (c *SQLCompiler) Compile(q *queryir.Select) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if c.Dialect != DialectSQLite && c.Dialect != DialectPostgres {
		return "", nil, fmt.Errorf("unsupported dialect %q", c.Dialect)
	}

	from, err := c.ident(q.From)
	if err != nil {
		return "", nil, fmt.Errorf("compile FROM: %w", err)
	}
	columns, err := c.compileColumns(q.Columns)
	if err != nil {
		return "", nil, err
	}

	r := &renderer{compiler: c}
	where, err := r.group(q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", columns, from)
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	orderBy, err := c.compileOrder(q.Order)
	if err != nil {
		return "", nil, err
	}
	if orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(orderBy)
	}

	bounds, err := c.compileBounds(q.RowLimit, q.RowOffset)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(bounds)

	return sb.String(), r.params, nil
}

// compileColumns renders the SELECT list; no columns selects "*".
func (c *SQLCompiler) compileColumns(columns []string) (string, error) {
	if len(columns) == 0 {
		return "*", nil
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		quoted, err := c.ident(col)
		if err != nil {
			return "", fmt.Errorf("compile columns: %w", err)
		}
		parts[i] = quoted
	}
	return strings.Join(parts, ", "), nil
}

// compileOrder renders the ORDER BY list including the tiebreaker.
func (c *SQLCompiler) compileOrder(order []queryir.OrderTerm) (string, error) {
	var parts []string
	seen := make(map[string]bool, len(order))
	for _, term := range order {
		quoted, err := c.ident(term.Expr)
		if err != nil {
			return "", fmt.Errorf("compile ORDER BY: %w", err)
		}
		dir := term.Direction
		if dir != queryir.Desc {
			dir = queryir.Asc
		}
		parts = append(parts, quoted+" "+string(dir))
		seen[term.Expr] = true
	}

	if c.StableOrder != "" && !seen[c.StableOrder] {
		quoted, err := c.ident(c.StableOrder)
		if err != nil {
			return "", fmt.Errorf("compile stable order: %w", err)
		}
		tiebreak := quoted
		if c.Dialect == DialectSQLite {
			// COLLATE BINARY keeps text ordering identical across SQLite builds.
			// SQLite wants the collation before the direction.
			tiebreak += " COLLATE BINARY"
		}
		parts = append(parts, tiebreak+" ASC")
	}
	return strings.Join(parts, ", "), nil
}

// compileBounds renders LIMIT / OFFSET. SQLite cannot take OFFSET without
// LIMIT, so an offset alone is written as LIMIT -1 OFFSET n there.
func (c *SQLCompiler) compileBounds(limit, offset *int) (string, error) {
	if limit != nil && *limit < 0 {
		return "", fmt.Errorf("negative limit %d", *limit)
	}
	if offset != nil && *offset < 0 {
		return "", fmt.Errorf("negative offset %d", *offset)
	}

	var sb strings.Builder
	switch {
	case limit != nil:
		sb.WriteString(" LIMIT " + strconv.Itoa(*limit))
	case offset != nil && c.Dialect == DialectSQLite:
		sb.WriteString(" LIMIT -1")
	}
	if offset != nil {
		sb.WriteString(" OFFSET " + strconv.Itoa(*offset))
	}
	return sb.String(), nil
}

// ident validates an identifier and quotes it for the dialect.
func (c *SQLCompiler) ident(expr string) (string, error) {
	if !ValidIdentifier(expr) {
		return "", fmt.Errorf("invalid identifier %q", expr)
	}
	if c.Dialect == DialectPostgres {
		return pgx.Identifier(strings.Split(expr, ".")).Sanitize(), nil
	}
	return expr, nil
}

// renderer accumulates parameters while walking the predicate tree.
type renderer struct {
	compiler *SQLCompiler
	params   []any
}

func (r *renderer) placeholder(v any) string {
	r.params = append(r.params, v)
	if r.compiler.Dialect == DialectPostgres {
		return "$" + strconv.Itoa(len(r.params))
	}
	return "?"
}

// group renders the clauses of g. Empty groups render as "" and are skipped
// by their parent.
func (r *renderer) group(g queryir.Group) (string, error) {
	var sb strings.Builder
	for i, clause := range g.Clauses {
		sql, err := r.predicate(clause.Predicate)
		if err != nil {
			return "", fmt.Errorf("clause %d: %w", i, err)
		}
		if sql == "" {
			continue
		}
		if sb.Len() > 0 {
			joiner := clause.Joiner
			if joiner != queryir.Or {
				joiner = queryir.And
			}
			sb.WriteString(" " + string(joiner) + " ")
		}
		sb.WriteString(sql)
	}
	return sb.String(), nil
}

func (r *renderer) predicate(p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Condition:
		return r.condition(pred)
	case queryir.Group:
		sql, err := r.group(pred)
		if err != nil || sql == "" {
			return sql, err
		}
		return "(" + sql + ")", nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// condition renders one comparison.
// CRITICAL: the value is never interpolated.
func (r *renderer) condition(cond queryir.Condition) (string, error) {
	field, err := r.compiler.ident(cond.Field)
	if err != nil {
		return "", err
	}
	if !queryir.KnownOperator(cond.Op) {
		return "", fmt.Errorf("field %q: unknown operator %q", cond.Field, cond.Op)
	}

	param, isParam := cond.Value.(queryir.Parameter)
	switch cond.Op {
	case queryir.OpIn, queryir.OpNotIn:
		if !isParam {
			return "", fmt.Errorf("field %q: %s expects a queryir.Parameter, got %T", cond.Field, cond.Op, cond.Value)
		}
		if len(param.Values) == 0 {
			// x IN () is not valid SQL; an empty set matches nothing.
			if cond.Op == queryir.OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		holders := make([]string, len(param.Values))
		for i, v := range param.Values {
			pv, err := paramValue(v)
			if err != nil {
				return "", fmt.Errorf("field %q [%d]: %w", cond.Field, i, err)
			}
			holders[i] = r.placeholder(pv)
		}
		return fmt.Sprintf("%s %s (%s)", field, cond.Op, strings.Join(holders, ", ")), nil
	default:
		if isParam {
			return "", fmt.Errorf("field %q: %s cannot compare a parameter list", cond.Field, cond.Op)
		}
		pv, err := paramValue(cond.Value)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", cond.Field, err)
		}
		return fmt.Sprintf("%s %s %s", field, cond.Op, r.placeholder(pv)), nil
	}
}

// paramValue converts literal values to driver values; other values pass
// through unchanged.
func paramValue(v any) (any, error) {
	switch val := v.(type) {
	case ir.IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as a scalar parameter")
	case ir.IRValue:
		return ir.ToParam(val)
	default:
		return v, nil
	}
}
