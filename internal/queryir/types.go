package queryir

// Builder is the capability a query-builder writer needs from its target.
//
// Group callbacks receive a Builder scoped to the new group; OrderBy, Limit
// and Offset called inside a group apply to the enclosing query.
type Builder interface {
	Where(expr, op string, value any)
	WhereGroup(fn func(Builder))
	OrWhereGroup(fn func(Builder))
	OrderBy(dir Direction, exprs ...string)
	Limit(n int)
	Offset(n int)
}

// Direction is an ORDER BY direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Operator tokens accepted by Where.
const (
	OpEq    = "="
	OpNe    = "!="
	OpLt    = "<"
	OpLte   = "<="
	OpGt    = ">"
	OpGte   = ">="
	OpLike  = "LIKE"
	OpIn    = "IN"
	OpNotIn = "NOT IN"
)

// KnownOperator reports whether op is one of the operator tokens above.
func KnownOperator(op string) bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpLike, OpIn, OpNotIn:
		return true
	default:
		return false
	}
}

// Parameter is a list bound as one parameter group, e.g. the right-hand
// side of IN. Renderers expand it into one placeholder per element.
type Parameter struct {
	Values []any
}

// Predicate represents a filter condition in a Select.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Joiner connects a clause to the clause before it.
type Joiner string

const (
	And Joiner = "AND"
	Or  Joiner = "OR"
)

// Clause is one predicate in a group with the joiner that links it to the
// previous clause. The first clause's joiner is ignored.
type Clause struct {
	Joiner    Joiner
	Predicate Predicate
}

// Condition is a direct comparison: <Field> <Op> <Value>.
//
// Example:
//
//	Condition{Field: "status", Op: "=", Value: "active"}
//
// Renders to SQL as:
//
//	status = ?
type Condition struct {
	Field string
	Op    string
	Value any
}

func (Condition) predicateNode() {}

// Group is a parenthesized sequence of clauses.
//
// An empty group is always true and renderers skip it.
type Group struct {
	Clauses []Clause
}

func (Group) predicateNode() {}

// Empty reports whether the group has no clauses.
func (g Group) Empty() bool { return len(g.Clauses) == 0 }

// OrderTerm is one ORDER BY expression.
type OrderTerm struct {
	Expr      string
	Direction Direction
}

// Select represents a table query assembled through the Builder calls.
//
// Semantics:
//
//	SELECT <Columns> FROM <From> WHERE <Filter> ORDER BY <Order> LIMIT <RowLimit> OFFSET <RowOffset>
//
// Nil RowLimit / RowOffset mean "not set".
type Select struct {
	From      string
	Columns   []string
	Filter    Group
	Order     []OrderTerm
	RowLimit  *int
	RowOffset *int
}

// NewSelect creates an empty query over from.
func NewSelect(from string, columns ...string) *Select {
	return &Select{From: from, Columns: append([]string(nil), columns...)}
}

func (s *Select) root() *groupBuilder {
	return &groupBuilder{query: s, group: &s.Filter}
}

// Where appends an ANDed condition.
func (s *Select) Where(expr, op string, value any) { s.root().Where(expr, op, value) }

// WhereGroup appends an ANDed group built by fn.
func (s *Select) WhereGroup(fn func(Builder)) { s.root().WhereGroup(fn) }

// OrWhereGroup appends an ORed group built by fn.
func (s *Select) OrWhereGroup(fn func(Builder)) { s.root().OrWhereGroup(fn) }

// OrderBy appends one order term per expression.
func (s *Select) OrderBy(dir Direction, exprs ...string) {
	for _, e := range exprs {
		s.Order = append(s.Order, OrderTerm{Expr: e, Direction: dir})
	}
}

// Limit sets the row limit; the last call wins.
func (s *Select) Limit(n int) { s.RowLimit = &n }

// Offset sets the row offset; the last call wins.
func (s *Select) Offset(n int) { s.RowOffset = &n }

// Checkpoint captures the current state and returns a function restoring it.
// Builder calls only ever append, so truncating back is enough.
// On a nil Select restore does nothing.
func (s *Select) Checkpoint() (restore func()) {
	if s == nil {
		return func() {}
	}
	clauses := len(s.Filter.Clauses)
	order := len(s.Order)
	limit, offset := s.RowLimit, s.RowOffset
	return func() {
		s.Filter.Clauses = s.Filter.Clauses[:clauses]
		s.Order = s.Order[:order]
		s.RowLimit, s.RowOffset = limit, offset
	}
}

// groupBuilder appends to one group of a Select.
type groupBuilder struct {
	query *Select
	group *Group
}

func (b *groupBuilder) Where(expr, op string, value any) {
	b.group.Clauses = append(b.group.Clauses, Clause{
		Joiner:    And,
		Predicate: Condition{Field: expr, Op: op, Value: value},
	})
}

func (b *groupBuilder) WhereGroup(fn func(Builder)) {
	b.group.Clauses = append(b.group.Clauses, Clause{Joiner: And, Predicate: b.sub(fn)})
}

func (b *groupBuilder) OrWhereGroup(fn func(Builder)) {
	b.group.Clauses = append(b.group.Clauses, Clause{Joiner: Or, Predicate: b.sub(fn)})
}

func (b *groupBuilder) sub(fn func(Builder)) Group {
	var g Group
	fn(&groupBuilder{query: b.query, group: &g})
	return g
}

func (b *groupBuilder) OrderBy(dir Direction, exprs ...string) { b.query.OrderBy(dir, exprs...) }
func (b *groupBuilder) Limit(n int)                            { b.query.Limit(n) }
func (b *groupBuilder) Offset(n int)                           { b.query.Offset(n) }
