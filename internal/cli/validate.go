package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/datagrid/internal/compiler"
	"github.com/roach88/datagrid/internal/queryir"
	"github.com/roach88/datagrid/internal/querysql"
	"github.com/roach88/datagrid/internal/schema"
	"github.com/roach88/datagrid/internal/spec"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool          `json:"valid"`
	Grids    []GridSummary `json:"grids,omitempty"`
	Errors   []Diagnostic  `json:"errors,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

// GridSummary describes one valid grid.
type GridSummary struct {
	Name    string   `json:"name"`
	From    string   `json:"from"`
	Filters []string `json:"filters"`
	Sorters []string `json:"sorters"`
	Limit   int      `json:"limit,omitempty"`
	Max     int      `json:"max,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [schema-path]",
		Short: "Validate grid declarations",
		Long: `Validate CUE grid declarations without compiling a request.

Checks that every grid compiles, that filter and sorter expressions are
plain identifiers, and that the grid's default query renders.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.settings().Schema
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sch, diags := LoadSchema(path)
	if sch == nil {
		return outputDiagnostics(formatter, "validation failed", diags, ExitCommandError)
	}

	result := validateSchema(sch, opts.logger(formatter.GetErrWriter()), formatter)
	result.Errors = append(diags, result.Errors...)
	if len(result.Errors) > 0 {
		result.Valid = false
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateSchema checks every compiled grid.
func validateSchema(sch *schema.Schema, logger *slog.Logger, formatter *OutputFormatter) *ValidationResult {
	result := &ValidationResult{Valid: true}
	c := compiler.New([]compiler.Writer{querysql.NewWriter()})
	sqlc := querysql.NewSQLCompiler(querysql.DialectSQLite)

	for _, grid := range sch.Grids {
		formatter.VerboseLog("Validating grid: %s", grid.Name)

		errs := checkIdentifiers(grid)
		if len(errs) == 0 {
			q, err := grid.Bind(schema.Input{}).Apply(c)
			if err == nil {
				_, _, err = sqlc.Compile(q)
			}
			if err != nil {
				errs = append(errs, diagnose(err))
			} else {
				for _, w := range queryir.Validate(q).Warnings {
					result.Warnings = append(result.Warnings, fmt.Sprintf("grid %s: %s", grid.Name, w))
				}
			}
		}
		if len(errs) > 0 {
			withGridPos(errs, grid)
			result.Errors = append(result.Errors, errs...)
			continue
		}

		logger.Debug("grid valid", "grid", grid.Name, "filters", len(grid.Filters), "sorters", len(grid.Sorters))
		result.Grids = append(result.Grids, summarize(grid))
	}
	return result
}

// checkIdentifiers reports filter and sorter expressions the SQL writer
// would refuse. Only literal filters reach the writer without input, so
// the rest are checked here.
func checkIdentifiers(grid *schema.Grid) []Diagnostic {
	var diags []Diagnostic
	bad := func(field, expr string) {
		diags = append(diags, Diagnostic{
			Code:    ErrCodeInvalidExpression,
			Field:   field,
			Message: fmt.Sprintf("expression %q is not a valid identifier", expr),
		})
	}

	for _, nf := range grid.Filters {
		field := fmt.Sprintf("grid.%s.filters.%s", grid.Name, nf.Name)
		for _, expr := range filterExpressions(nf.Filter) {
			if !querysql.ValidIdentifier(expr) {
				bad(field, expr)
			}
		}
	}
	for _, ns := range grid.Sorters {
		field := fmt.Sprintf("grid.%s.sorters.%s", grid.Name, ns.Name)
		exprs := append(append([]string(nil), ns.Sorter.Asc.Expressions...), ns.Sorter.Desc.Expressions...)
		for _, expr := range slices.Compact(exprs) {
			if !querysql.ValidIdentifier(expr) {
				bad(field, expr)
			}
		}
	}
	return diags
}

// filterExpressions lists the target expressions of f in traversal order.
func filterExpressions(f spec.Specification) []string {
	switch node := spec.Unwrap(f).(type) {
	case spec.Atomic:
		return []string{node.Base().Expr}
	case spec.All:
		return childExpressions(node.Filters)
	case spec.Any:
		return childExpressions(node.Filters)
	case spec.Map:
		return childExpressions(node.Children())
	default:
		return nil
	}
}

func childExpressions(filters []spec.Filter) []string {
	var out []string
	for _, child := range filters {
		out = append(out, filterExpressions(child)...)
	}
	return out
}

// withGridPos points diagnostics without a position at the grid.
func withGridPos(diags []Diagnostic, grid *schema.Grid) {
	for i := range diags {
		if diags[i].File == "" {
			withPos(&diags[i], grid.Pos)
		}
	}
}

func summarize(grid *schema.Grid) GridSummary {
	s := GridSummary{
		Name:    grid.Name,
		From:    grid.From,
		Filters: make([]string, 0, len(grid.Filters)),
		Sorters: make([]string, 0, len(grid.Sorters)),
		Limit:   grid.Pagination.Limit,
		Max:     grid.Pagination.Max,
	}
	for _, nf := range grid.Filters {
		s.Filters = append(s.Filters, nf.Name)
	}
	for _, ns := range grid.Sorters {
		s.Sorters = append(s.Sorters, ns.Name)
	}
	return s
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %d grid(s) valid\n", len(result.Grids))
	for _, g := range result.Grids {
		fmt.Fprintf(w, "  %s: from %s, %d filter(s), %d sorter(s)%s\n",
			g.Name, g.From, len(g.Filters), len(g.Sorters), pageSuffix(g))
	}
	writeWarnings(w, result.Warnings)
	return nil
}

func pageSuffix(g GridSummary) string {
	var parts []string
	if g.Limit > 0 {
		parts = append(parts, fmt.Sprintf("limit %d", g.Limit))
	}
	if g.Max > 0 {
		parts = append(parts, fmt.Sprintf("max %d", g.Max))
	}
	if len(parts) == 0 {
		return ""
	}
	return ", " + strings.Join(parts, ", ")
}

func writeWarnings(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "⚠ %s\n", warning)
	}
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, result *ValidationResult) error {
	exitCode := ExitFailure
	if isCommandError(result.Errors) {
		exitCode = ExitCommandError
	}
	message := fmt.Sprintf("validation failed with %d error(s)", len(result.Errors))

	if formatter.Format == "json" {
		return formatter.Failure(exitCode, result.Errors[0].Code, message, result)
	}

	err := outputDiagnostics(formatter, "validation failed", result.Errors, exitCode)
	writeWarnings(formatter.Writer, result.Warnings)
	return err
}
