package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/datagrid/internal/compiler"
	"github.com/roach88/datagrid/internal/ir"
	"github.com/roach88/datagrid/internal/querysql"
	"github.com/roach88/datagrid/internal/schema"
	"github.com/roach88/datagrid/internal/store"
)

// Harness runs scenarios with the SQL writer.
type Harness struct {
	compiler *compiler.Compiler
	logger   *slog.Logger
}

// New creates a Harness. A nil logger discards output.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{
		compiler: compiler.New(
			[]compiler.Writer{querysql.NewWriter()},
			compiler.WithLogger(logger),
		),
		logger: logger,
	}
}

// Run executes a scenario with a silent Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(context.Background(), scenario)
}

// Run executes a scenario and returns the result.
//
// An error is returned only when the scenario itself cannot run: the schema
// does not load, the grid is missing, the input is malformed or a fixture
// fails. Everything else is reported on the Result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	sch, errs := schema.Load(scenario.Schema)
	if len(errs) > 0 {
		return nil, fmt.Errorf("load schema %s: %w", scenario.Schema, errors.Join(errs...))
	}
	grid, ok := sch.Grid(scenario.Grid)
	if !ok {
		return nil, fmt.Errorf("grid %q not found in %s (have %s)",
			scenario.Grid, scenario.Schema, strings.Join(sch.Names(), ", "))
	}

	raw, err := ir.FromGo(scenario.Input)
	if err != nil {
		return nil, fmt.Errorf("convert input: %w", err)
	}
	in, err := schema.ParseInput(raw)
	if err != nil {
		return nil, err
	}

	sqlc, err := h.sqlCompiler(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult(grid.Name)
	bound := grid.Bind(in)
	result.Rejected = append(result.Rejected, bound.Rejected...)
	result.Unknown = append(result.Unknown, bound.Unknown...)

	compiled := h.compile(bound, sqlc, result)
	h.logger.Debug("scenario compiled",
		"scenario", scenario.Name,
		"grid", grid.Name,
		"sql", result.SQL,
		"rejected", len(result.Rejected),
		"error", result.Error,
	)

	if compiled && len(scenario.Fixtures) > 0 {
		if err := h.execute(ctx, scenario.Fixtures, result); err != nil {
			return nil, err
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	if result.Error != "" && !expectsError(scenario.Assertions) {
		result.AddError("unexpected compile error: " + result.Error)
	}

	return result, nil
}

func (h *Harness) sqlCompiler(scenario *Scenario) (*querysql.SQLCompiler, error) {
	dialect := querysql.DialectSQLite
	if scenario.Dialect != "" {
		d, err := querysql.ParseDialect(scenario.Dialect)
		if err != nil {
			return nil, err
		}
		dialect = d
	}
	sqlc := querysql.NewSQLCompiler(dialect)
	sqlc.StableOrder = scenario.StableOrder
	return sqlc, nil
}

// compile applies the bound specifications and renders SQL into result.
// It reports whether a query was produced.
func (h *Harness) compile(bound schema.Bound, sqlc *querysql.SQLCompiler, result *Result) bool {
	q, err := bound.Apply(h.compiler)
	if err != nil {
		result.Error = err.Error()
		return false
	}
	sql, params, err := sqlc.Compile(q)
	if err != nil {
		result.Error = err.Error()
		return false
	}
	result.SQL = sql
	result.Params = append(result.Params, params...)
	return true
}

// execute runs the compiled query on a fresh in-memory store seeded with
// fixtures. Query failures are assertion failures; fixture failures are not.
func (h *Harness) execute(ctx context.Context, fixtures []string, result *Result) error {
	st, err := store.Open(store.Memory)
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.Exec(ctx, fixtures...); err != nil {
		return fmt.Errorf("failed to apply fixtures: %w", err)
	}

	rows, err := st.Select(ctx, result.SQL, result.Params...)
	if err != nil {
		result.AddError(fmt.Sprintf("execute compiled query: %v", err))
		return nil
	}
	result.Rows = rows
	return nil
}

func expectsError(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertError {
			return true
		}
	}
	return false
}
