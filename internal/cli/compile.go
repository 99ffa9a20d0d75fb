package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/datagrid/internal/compiler"
	"github.com/roach88/datagrid/internal/ir"
	"github.com/roach88/datagrid/internal/queryir"
	"github.com/roach88/datagrid/internal/querysql"
	"github.com/roach88/datagrid/internal/schema"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Grid        string
	Input       string // file path, "-" for stdin
	Dialect     string
	StableOrder string
}

// CompileResult is the SQL produced for one request.
type CompileResult struct {
	Grid     string   `json:"grid"`
	SQL      string   `json:"sql"`
	Params   []any    `json:"params"`
	Rejected []string `json:"rejected"`
	Unknown  []string `json:"unknown"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [schema-path]",
		Short: "Compile a grid request to parameterized SQL",
		Long: `Bind request input to a grid and compile it to SQL.

The input is a YAML or JSON object with optional filter, sort and paginate
sections:

  filter:   {status: active}
  sort:     {created: desc}
  paginate: {limit: 10, page: 2}

Inputs the grid's validators refuse are reported as rejected and left out
of the query; inputs naming no filter or sorter are reported as unknown.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.settings().Schema
			if len(args) == 1 {
				path = args[0]
			}
			return runCompile(opts, path, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Grid, "grid", "g", "", "grid to compile (default: the only grid in the schema)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", `request input file, "-" for stdin`)
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "SQL dialect (sqlite|postgres)")
	cmd.Flags().StringVar(&opts.StableOrder, "stable-order", "", "column appended to ORDER BY as a tiebreaker")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	cfg := opts.settings()

	sch, diags := LoadSchema(path)
	if sch == nil || len(diags) > 0 {
		return outputDiagnostics(formatter, "schema failed to load", diags, ExitCommandError)
	}
	formatter.VerboseLog("Loaded %d grid(s) from %s", len(sch.Grids), path)

	grid, err := pickGrid(sch, opts.Grid)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGridNotFound, err.Error())
	}

	in, err := readInput(opts.Input, cmd.InOrStdin())
	if err != nil {
		return outputCompileError(formatter, ErrCodeInvalidInput, err.Error())
	}

	dialectName := cfg.Dialect
	if opts.Dialect != "" {
		dialectName = opts.Dialect
	}
	dialect, err := querysql.ParseDialect(dialectName)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error())
	}
	sqlc := querysql.NewSQLCompiler(dialect)
	sqlc.StableOrder = cfg.StableOrder
	if opts.StableOrder != "" {
		sqlc.StableOrder = opts.StableOrder
	}

	reg := prometheus.NewRegistry()
	c := compiler.New(
		[]compiler.Writer{querysql.NewWriter()},
		compiler.WithLogger(opts.logger(formatter.GetErrWriter())),
		compiler.WithMetrics(compiler.NewMetrics(reg)),
	)

	bound := grid.Bind(in)
	q, err := bound.Apply(c)
	logNodeCounts(formatter, reg)
	if err != nil {
		d := diagnose(err)
		return outputCompileError(formatter, d.Code, err.Error())
	}

	sql, params, err := sqlc.Compile(q)
	if err != nil {
		return outputCompileError(formatter, ErrCodeRenderFailed, err.Error())
	}

	result := &CompileResult{
		Grid:     grid.Name,
		SQL:      sql,
		Params:   params,
		Rejected: orEmpty(bound.Rejected),
		Unknown:  orEmpty(bound.Unknown),
		Warnings: queryir.Validate(q).Warnings,
	}
	if result.Params == nil {
		result.Params = []any{}
	}
	return outputCompileSuccess(formatter, result)
}

// pickGrid returns the named grid, or the only grid when name is empty.
func pickGrid(sch *schema.Schema, name string) (*schema.Grid, error) {
	if name == "" {
		if len(sch.Grids) == 1 {
			return sch.Grids[0], nil
		}
		return nil, fmt.Errorf("schema declares %d grids, choose one with --grid: %s",
			len(sch.Grids), strings.Join(sch.Names(), ", "))
	}
	grid, ok := sch.Grid(name)
	if !ok {
		return nil, fmt.Errorf("grid %q not found (have %s)", name, strings.Join(sch.Names(), ", "))
	}
	return grid, nil
}

// readInput decodes request input from a file or stdin. An empty path means
// no input.
func readInput(path string, stdin io.Reader) (schema.Input, error) {
	if path == "" {
		return schema.Input{}, nil
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return schema.Input{}, fmt.Errorf("reading input: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return schema.Input{}, nil
	}

	var decoded any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return schema.Input{}, fmt.Errorf("parsing input: %w", err)
	}
	raw, err := ir.FromGo(decoded)
	if err != nil {
		return schema.Input{}, fmt.Errorf("converting input: %w", err)
	}
	return schema.ParseInput(raw)
}

// logNodeCounts prints the compiler's dispatch counters in verbose mode.
func logNodeCounts(formatter *OutputFormatter, reg *prometheus.Registry) {
	if !formatter.Verbose {
		return
	}
	families, err := reg.Gather()
	if err != nil {
		formatter.VerboseLog("gathering metrics: %v", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			formatter.VerboseLog("%s{%s} %.0f", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// outputCompileSuccess outputs the compiled query.
func outputCompileSuccess(formatter *OutputFormatter, result *CompileResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled grid %s\n\n", result.Grid)
	fmt.Fprintf(w, "%s\n", result.SQL)
	if len(result.Params) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Params:")
		for i, p := range result.Params {
			fmt.Fprintf(w, "  %d: %v\n", i+1, p)
		}
	}
	if len(result.Rejected) > 0 {
		fmt.Fprintf(w, "\nRejected: %s\n", strings.Join(result.Rejected, ", "))
	}
	if len(result.Unknown) > 0 {
		fmt.Fprintf(w, "\nUnknown: %s\n", strings.Join(result.Unknown, ", "))
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "\n⚠ %s\n", warning)
	}
	return nil
}

// outputCompileError outputs a single error. Errors before the query is
// built are command errors (exit code 2); a query that cannot be built is
// a failure (exit code 1).
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	exit := ExitCommandError
	if strings.HasPrefix(code, "E2") {
		exit = ExitFailure
	}
	return NewExitError(exit, fmt.Sprintf("%s: %s", code, message))
}

// outputDiagnostics outputs every diagnostic with its position.
func outputDiagnostics(formatter *OutputFormatter, summary string, diags []Diagnostic, exitCode int) error {
	if len(diags) == 0 {
		diags = []Diagnostic{{Code: ErrCodeGeneric, Message: summary}}
	}
	if isCommandError(diags) {
		exitCode = ExitCommandError
	}
	message := fmt.Sprintf("%s with %d error(s)", summary, len(diags))

	if formatter.Format == "json" {
		return formatter.Failure(exitCode, diags[0].Code, message, diags)
	}

	fmt.Fprintf(formatter.Writer, "✗ %s\n\n", capitalize(summary))
	for _, d := range diags {
		if loc := d.location(); loc != "" {
			fmt.Fprintln(formatter.Writer, loc)
		}
		if d.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", d.Code, d.Field, d.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", d.Code, d.Message)
		}
	}
	return NewExitError(exitCode, message)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
