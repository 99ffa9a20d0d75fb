package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datagrid/internal/ir"
)

func sampleResult() *Result {
	r := NewResult("users")
	r.SQL = "SELECT id FROM users WHERE status = ? LIMIT 2"
	r.Params = []any{"active"}
	r.Rejected = []string{"filter.age"}
	r.Rows = []ir.IRObject{
		{"id": ir.IRInt(1)},
		{"id": ir.IRInt(2)},
	}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertSQLEquals, SQL: "SELECT id FROM users WHERE status = ? LIMIT 2"},
		{Type: AssertSQLContains, Contains: "status = ?"},
		{Type: AssertParams, Params: []any{"active"}},
		{Type: AssertRejected, Names: []string{"filter.age"}},
		{Type: AssertUnknown},
		{Type: AssertRows, Column: "id", Values: []any{1, 2}},
		{Type: AssertRowCount, Count: 2},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"sql_equals", Assertion{Type: AssertSQLEquals, SQL: "SELECT 1"}, "Expected: SELECT 1"},
		{"sql_contains", Assertion{Type: AssertSQLContains, Contains: "ORDER BY"}, `SQL containing "ORDER BY"`},
		{"params", Assertion{Type: AssertParams, Params: []any{"banned"}}, `Expected: ["banned"]`},
		{"params count", Assertion{Type: AssertParams}, `Actual: ["active"]`},
		{"rejected", Assertion{Type: AssertRejected}, `Actual: ["filter.age"]`},
		{"unknown", Assertion{Type: AssertUnknown, Names: []string{"sort.x"}}, `Expected: ["sort.x"]`},
		{"rows order", Assertion{Type: AssertRows, Column: "id", Values: []any{2, 1}}, "id = [1,2]"},
		{"rows column", Assertion{Type: AssertRows, Column: "name", Values: []any{"a"}}, "column name in every row"},
		{"row_count", Assertion{Type: AssertRowCount, Count: 5}, "Actual: 2 rows"},
		{"error", Assertion{Type: AssertError, Contains: "INVALID"}, "Actual: (none)"},
		{"unknown type", Assertion{Type: "final_state"}, `unknown assertion type "final_state"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestEvaluateAssertions_RowsNotExecuted(t *testing.T) {
	r := sampleResult()
	r.Rows = nil

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertRows, Column: "id", Values: []any{1}},
		{Type: AssertRowCount, Count: 0},
	})
	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.Contains(t, e, "query was not executed")
	}
}

func TestEvaluateAssertions_ErrorMatch(t *testing.T) {
	r := NewResult("users")
	r.Error = "grid users: UNRESOLVED_VALUE: value expects user input, none given (spec.Equals \"status\")"

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertError, Contains: "UNRESOLVED_VALUE"}})
	assert.Empty(t, errs)
}

func TestAssertionError_IncludesSQL(t *testing.T) {
	err := &AssertionError{Type: AssertParams, Expected: "[1]", Actual: "[2]", SQL: "SELECT 1"}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: params")
	assert.Contains(t, msg, "Expected: [1]")
	assert.Contains(t, msg, "Actual: [2]")
	assert.Contains(t, msg, "SQL:\n  SELECT 1")
}
