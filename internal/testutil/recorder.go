package testutil

import (
	"fmt"
	"strings"

	"github.com/roach88/datagrid/internal/queryir"
)

// Call is one recorded builder call. Group calls carry the calls made
// inside the group in Nested.
type Call struct {
	Method string
	Args   []any
	Nested []Call
}

// String renders the call in a compact form used by test assertions, e.g.
//
//	where(status = "active")
//	orWhereGroup[where(id > 3)]
func (c Call) String() string {
	switch c.Method {
	case "whereGroup", "orWhereGroup":
		parts := make([]string, len(c.Nested))
		for i, n := range c.Nested {
			parts[i] = n.String()
		}
		return fmt.Sprintf("%s[%s]", c.Method, strings.Join(parts, " "))
	case "where":
		return fmt.Sprintf("where(%v %v %#v)", c.Args[0], c.Args[1], c.Args[2])
	default:
		args := make([]string, len(c.Args))
		for i, a := range c.Args {
			args[i] = fmt.Sprint(a)
		}
		return fmt.Sprintf("%s(%s)", c.Method, strings.Join(args, ", "))
	}
}

// Recorder is a queryir.Builder that records every call instead of building
// a query. It implements Checkpoint so compiler rollback can be observed.
//
// Recorder is not safe for concurrent use.
type Recorder struct {
	Calls []Call
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

var _ queryir.Builder = (*Recorder)(nil)

// Where records a condition.
func (r *Recorder) Where(expr, op string, value any) {
	r.Calls = append(r.Calls, Call{Method: "where", Args: []any{expr, op, value}})
}

// WhereGroup records an ANDed group and the calls fn makes inside it.
func (r *Recorder) WhereGroup(fn func(queryir.Builder)) {
	r.Calls = append(r.Calls, Call{Method: "whereGroup", Nested: record(fn)})
}

// OrWhereGroup records an ORed group and the calls fn makes inside it.
func (r *Recorder) OrWhereGroup(fn func(queryir.Builder)) {
	r.Calls = append(r.Calls, Call{Method: "orWhereGroup", Nested: record(fn)})
}

// OrderBy records an ordering call.
func (r *Recorder) OrderBy(dir queryir.Direction, exprs ...string) {
	args := []any{dir}
	for _, e := range exprs {
		args = append(args, e)
	}
	r.Calls = append(r.Calls, Call{Method: "orderBy", Args: args})
}

// Limit records a limit call.
func (r *Recorder) Limit(n int) {
	r.Calls = append(r.Calls, Call{Method: "limit", Args: []any{n}})
}

// Offset records an offset call.
func (r *Recorder) Offset(n int) {
	r.Calls = append(r.Calls, Call{Method: "offset", Args: []any{n}})
}

// Checkpoint returns a function that drops every call recorded after it.
func (r *Recorder) Checkpoint() (restore func()) {
	n := len(r.Calls)
	return func() {
		r.Calls = r.Calls[:n]
	}
}

// Strings renders every top-level call with Call.String.
func (r *Recorder) Strings() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.String()
	}
	return out
}

func record(fn func(queryir.Builder)) []Call {
	sub := &Recorder{}
	fn(sub)
	return sub.Calls
}
