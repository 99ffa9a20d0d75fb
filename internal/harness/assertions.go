package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/datagrid/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the rendered SQL to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	SQL      string // Rendered query, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.SQL != "" {
		fmt.Fprintf(&buf, "\nSQL:\n  %s\n", e.SQL)
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSQLEquals:
			err = assertSQLEquals(result, assertion)
		case AssertSQLContains:
			err = assertSQLContains(result, assertion)
		case AssertParams:
			err = assertParams(result, assertion)
		case AssertRejected:
			err = assertNames(AssertRejected, result.Rejected, assertion.Names)
		case AssertUnknown:
			err = assertNames(AssertUnknown, result.Unknown, assertion.Names)
		case AssertRows:
			err = assertRows(result, assertion)
		case AssertRowCount:
			err = assertRowCount(result, assertion)
		case AssertError:
			err = assertError(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func assertSQLEquals(result *Result, a Assertion) error {
	if result.SQL == a.SQL {
		return nil
	}
	return &AssertionError{
		Type:     AssertSQLEquals,
		Expected: a.SQL,
		Actual:   orNone(result.SQL),
	}
}

func assertSQLContains(result *Result, a Assertion) error {
	if result.SQL != "" && strings.Contains(result.SQL, a.Contains) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSQLContains,
		Expected: fmt.Sprintf("SQL containing %q", a.Contains),
		Actual:   orNone(result.SQL),
	}
}

func assertParams(result *Result, a Assertion) error {
	want, err := irList(a.Params)
	if err != nil {
		return fmt.Errorf("params assertion: %w", err)
	}
	got, err := irList(result.Params)
	if err != nil {
		return fmt.Errorf("rendered params: %w", err)
	}
	if ir.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertParams,
		Expected: formatIR(want),
		Actual:   formatIR(got),
		SQL:      result.SQL,
	}
}

func assertNames(kind string, got, want []string) error {
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", got),
	}
}

// assertRows compares one column of every returned row, in row order.
func assertRows(result *Result, a Assertion) error {
	if result.Rows == nil {
		return &AssertionError{
			Type:     AssertRows,
			Expected: fmt.Sprintf("rows with column %s", a.Column),
			Actual:   "query was not executed",
			SQL:      result.SQL,
		}
	}

	want, err := irList(a.Values)
	if err != nil {
		return fmt.Errorf("rows assertion: %w", err)
	}

	got := make(ir.IRArray, 0, len(result.Rows))
	for i, row := range result.Rows {
		v, ok := row[a.Column]
		if !ok {
			return &AssertionError{
				Type:     AssertRows,
				Expected: fmt.Sprintf("column %s in every row", a.Column),
				Actual:   fmt.Sprintf("row %d has columns %v", i, row.SortedKeys()),
				SQL:      result.SQL,
			}
		}
		got = append(got, v)
	}

	if ir.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertRows,
		Expected: fmt.Sprintf("%s = %s", a.Column, formatIR(want)),
		Actual:   fmt.Sprintf("%s = %s", a.Column, formatIR(got)),
		SQL:      result.SQL,
	}
}

func assertRowCount(result *Result, a Assertion) error {
	if result.Rows != nil && len(result.Rows) == a.Count {
		return nil
	}
	actual := "query was not executed"
	if result.Rows != nil {
		actual = fmt.Sprintf("%d rows", len(result.Rows))
	}
	return &AssertionError{
		Type:     AssertRowCount,
		Expected: fmt.Sprintf("%d rows", a.Count),
		Actual:   actual,
		SQL:      result.SQL,
	}
}

func assertError(result *Result, a Assertion) error {
	if result.Error != "" && strings.Contains(result.Error, a.Contains) {
		return nil
	}
	return &AssertionError{
		Type:     AssertError,
		Expected: fmt.Sprintf("compile error containing %q", a.Contains),
		Actual:   orNone(result.Error),
		SQL:      result.SQL,
	}
}

// irList converts decoded YAML or driver values into an IRArray.
func irList(values []any) (ir.IRArray, error) {
	out := make(ir.IRArray, len(values))
	for i, v := range values {
		iv, err := ir.FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = iv
	}
	return out, nil
}

func formatIR(v ir.IRValue) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
