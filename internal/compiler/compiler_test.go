package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datagrid/internal/ir"
	"github.com/roach88/datagrid/internal/queryir"
	"github.com/roach88/datagrid/internal/spec"
	recorder "github.com/roach88/datagrid/internal/testutil"
	"github.com/roach88/datagrid/internal/value"
)

// paginationWriter handles Limit and Offset on a queryir.Builder.
var paginationWriter = WriterFunc(func(target any, s spec.Specification, c *Compiler) (bool, error) {
	b, ok := target.(queryir.Builder)
	if !ok {
		return false, nil
	}
	switch node := spec.Unwrap(s).(type) {
	case spec.Limit:
		b.Limit(node.N)
		return true, nil
	case spec.Offset:
		b.Offset(node.N)
		return true, nil
	}
	return false, nil
})

// equalsWriter handles Equals and rejects placeholders.
var equalsWriter = WriterFunc(func(target any, s spec.Specification, c *Compiler) (bool, error) {
	b, ok := target.(queryir.Builder)
	if !ok {
		return false, nil
	}
	node, ok := spec.Unwrap(s).(spec.Equals)
	if !ok {
		return false, nil
	}
	lit, ok := node.Value.(spec.Literal)
	if !ok {
		return false, NewUnresolvedValueError(Kind(s), node.Expr)
	}
	b.Where(node.Expr, "=", lit.Value)
	return true, nil
})

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestCompile_DispatchesInOrder(t *testing.T) {
	c := New([]Writer{paginationWriter, equalsWriter}, WithLogger(quietLogger()))
	r := recorder.NewRecorder()

	unhandled, err := c.Compile(r,
		spec.Limit{N: 10},
		spec.NewEquals("status", spec.Lit(ir.IRString("active"))),
		spec.Offset{N: 5},
	)
	require.NoError(t, err)
	assert.Empty(t, unhandled)
	assert.Equal(t, []string{
		"limit(10)",
		`where(status = "active")`,
		"offset(5)",
	}, r.Strings())
}

func TestCompile_FirstHandlingWriterWins(t *testing.T) {
	var calls []string
	first := WriterFunc(func(target any, s spec.Specification, c *Compiler) (bool, error) {
		calls = append(calls, "first")
		return true, nil
	})
	second := WriterFunc(func(target any, s spec.Specification, c *Compiler) (bool, error) {
		calls = append(calls, "second")
		return true, nil
	})

	_, err := New([]Writer{first, second}).Compile(recorder.NewRecorder(), spec.Limit{N: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, calls)
}

func TestCompile_UnhandledIsNotAnError(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := New([]Writer{paginationWriter}, WithLogger(logger))
	r := recorder.NewRecorder()

	sorter := spec.Asc("name")
	unhandled, err := c.Compile(r, spec.Limit{N: 3}, sorter)
	require.NoError(t, err)

	assert.Equal(t, []spec.Specification{sorter}, unhandled)
	assert.Equal(t, []string{"limit(3)"}, r.Strings())
	assert.Contains(t, logs.String(), "specification not handled by any writer")
	assert.Contains(t, logs.String(), "kind=spec.Sorter")
}

func TestCompile_UnsupportedTargetLeavesEverythingUnhandled(t *testing.T) {
	c := New([]Writer{paginationWriter, equalsWriter}, WithLogger(quietLogger()))
	target := struct{ Name string }{Name: "not a builder"}

	specs := []spec.Specification{spec.Limit{N: 1}, spec.Offset{N: 2}}
	unhandled, err := c.Compile(target, specs...)
	require.NoError(t, err)
	assert.Equal(t, specs, unhandled)
}

func TestCompile_NoWriters(t *testing.T) {
	unhandled, err := New(nil).Compile(recorder.NewRecorder(), spec.Limit{N: 1})
	require.NoError(t, err)
	assert.Len(t, unhandled, 1)
}

func TestCompile_NoSpecs(t *testing.T) {
	unhandled, err := New([]Writer{paginationWriter}).Compile(recorder.NewRecorder())
	require.NoError(t, err)
	assert.Empty(t, unhandled)
}

func TestCompile_ErrorRollsBackCheckpointer(t *testing.T) {
	c := New([]Writer{paginationWriter, equalsWriter}, WithLogger(quietLogger()))
	r := recorder.NewRecorder()
	r.Limit(99)

	_, err := c.Compile(r,
		spec.Offset{N: 5},
		spec.NewEquals("id", spec.Expect(value.Int{})),
		spec.Limit{N: 1},
	)
	require.Error(t, err)
	assert.True(t, IsUnresolvedValue(err))
	assert.Equal(t, []string{"limit(99)"}, r.Strings(), "calls made before the error are undone")
}

func TestCompile_ErrorRollsBackSelect(t *testing.T) {
	c := New([]Writer{paginationWriter, equalsWriter}, WithLogger(quietLogger()))
	q := queryir.NewSelect("users")

	_, err := c.Compile(q,
		spec.NewEquals("name", spec.Lit(ir.IRString("ann"))),
		spec.NewEquals("id", spec.Expect(value.Int{})),
	)
	require.Error(t, err)
	assert.True(t, q.Filter.Empty())
}

func TestCompile_NestedCompileUsesSameWriters(t *testing.T) {
	allWriter := WriterFunc(func(target any, s spec.Specification, c *Compiler) (bool, error) {
		b, ok := target.(queryir.Builder)
		if !ok {
			return false, nil
		}
		node, ok := spec.Unwrap(s).(spec.All)
		if !ok {
			return false, nil
		}
		var err error
		b.WhereGroup(func(g queryir.Builder) {
			children := make([]spec.Specification, len(node.Filters))
			for i, f := range node.Filters {
				children[i] = f
			}
			_, err = c.Compile(g, children...)
		})
		return true, err
	})

	c := New([]Writer{allWriter, equalsWriter}, WithLogger(quietLogger()))
	r := recorder.NewRecorder()

	_, err := c.Compile(r, spec.NewAll(
		spec.NewEquals("a", spec.Lit(ir.IRInt(1))),
		spec.NewEquals("b", spec.Lit(ir.IRInt(2))),
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"whereGroup[where(a = 1) where(b = 2)]"}, r.Strings())
}

func TestCompile_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := New([]Writer{paginationWriter, equalsWriter}, WithMetrics(m), WithLogger(quietLogger()))

	_, err := c.Compile(recorder.NewRecorder(), spec.Limit{N: 1}, &spec.Offset{N: 2}, spec.Asc("x"))
	require.NoError(t, err)
	_, err = c.Compile(recorder.NewRecorder(), spec.NewEquals("x", spec.Expect(value.Any{})))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Nodes.WithLabelValues("spec.Limit", outcomeWritten)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Nodes.WithLabelValues("spec.Offset", outcomeWritten)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Nodes.WithLabelValues("spec.Sorter", outcomeUnhandled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Nodes.WithLabelValues("spec.Equals", outcomeError)))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "nil", Kind(nil))
	assert.Equal(t, "spec.Limit", Kind(spec.Limit{N: 1}))
	assert.Equal(t, "spec.Limit", Kind(&spec.Limit{N: 1}))
	assert.Equal(t, "nil", Kind((*spec.Limit)(nil)))
}

func TestError_Helpers(t *testing.T) {
	unresolved := NewUnresolvedValueError("spec.Equals", "status")
	assert.Equal(t, `UNRESOLVED_VALUE: value expects user input, none given (spec.Equals "status")`, unresolved.Error())

	wrapped := fmt.Errorf("compile grid: %w", unresolved)
	assert.True(t, IsUnresolvedValue(wrapped))
	assert.False(t, IsInvalidExpression(wrapped))

	expr := NewInvalidExpressionError("spec.Sorter", "name; drop")
	assert.True(t, IsInvalidExpression(expr))

	page := NewInvalidPaginationError("spec.Limit", -1)
	assert.True(t, IsInvalidPagination(page))
	assert.Equal(t, "INVALID_PAGINATION: must be non-negative, got -1 (spec.Limit)", page.Error())

	assert.False(t, IsUnresolvedValue(errors.New("plain")))
	assert.False(t, IsUnresolvedValue(nil))
}
