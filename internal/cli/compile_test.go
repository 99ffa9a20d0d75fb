package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var usersSchema = filepath.Join("..", "harness", "testdata", "schemas", "users.cue")

const twoGrids = `
grid: {
	items: {
		from: "items"
		filters: name: {kind: "equals", expr: "name", value: "string"}
	}
	orders: {
		from: "orders"
		filters: bad: {kind: "equals", expr: "total amount", literal: 1}
	}
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func decodeResponse(t *testing.T, data []byte) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func runCompileCmd(t *testing.T, format string, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCompileText(t *testing.T) {
	input := writeFile(t, "input.yaml", `
filter:
  status: active
sort:
  created: desc
paginate:
  limit: 5
  page: 3
`)

	out, err := runCompileCmd(t, "text", "", usersSchema, "--input", input)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled grid users")
	assert.Contains(t, out, "SELECT id, name, status FROM users WHERE status = ? AND status != ? ORDER BY created_at DESC LIMIT 5 OFFSET 10")
	assert.Contains(t, out, "1: active")
	assert.Contains(t, out, "2: deleted")
	assert.NotContains(t, out, "Rejected")
}

func TestCompileJSON(t *testing.T) {
	input := writeFile(t, "input.json", `{"filter": {"status": "gone", "colour": "red"}, "sort": {"name": "up"}}`)

	out, err := runCompileCmd(t, "json", "", usersSchema, "--input", input)
	require.NoError(t, err)

	resp := decodeResponse(t, []byte(out))
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "users", data["grid"])
	assert.Equal(t, "SELECT id, name, status FROM users WHERE status != ? LIMIT 10", data["sql"])
	assert.Equal(t, []any{"deleted"}, data["params"])
	assert.Equal(t, []any{"filter.status", "sort.name"}, data["rejected"])
	assert.Equal(t, []any{"filter.colour"}, data["unknown"])
}

func TestCompileStdinPostgres(t *testing.T) {
	stdin := "filter:\n  ids: [1, 2]\n"

	out, err := runCompileCmd(t, "json", stdin,
		usersSchema, "--input", "-", "--dialect", "postgres", "--stable-order", "id")
	require.NoError(t, err)

	data := decodeResponse(t, []byte(out)).Data.(map[string]any)
	assert.Equal(t,
		`SELECT "id", "name", "status" FROM "users" WHERE "id" IN ($1, $2) AND "status" != $3 ORDER BY "id" ASC LIMIT 10`,
		data["sql"])
	assert.Equal(t, []any{float64(1), float64(2), "deleted"}, data["params"])
}

func TestCompileNoInput(t *testing.T) {
	out, err := runCompileCmd(t, "json", "", usersSchema)
	require.NoError(t, err)

	data := decodeResponse(t, []byte(out)).Data.(map[string]any)
	assert.Equal(t, "SELECT id, name, status FROM users WHERE status != ? LIMIT 10", data["sql"])
	assert.Equal(t, []any{}, data["rejected"])
	assert.Equal(t, []any{}, data["unknown"])
}

func TestCompileVerboseLogsCounters(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text", Verbose: true})
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{usersSchema})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errBuf.String(), "Loaded 1 grid(s)")
	assert.Contains(t, errBuf.String(), `datagrid_compiler_nodes_total{kind=spec.NotEquals,outcome=written} 1`)
	assert.Contains(t, errBuf.String(), `datagrid_compiler_nodes_total{kind=spec.Limit,outcome=written} 1`)
}

func TestCompileGridSelection(t *testing.T) {
	schemaPath := writeFile(t, "grids.cue", twoGrids)

	t.Run("ambiguous", func(t *testing.T) {
		out, err := runCompileCmd(t, "text", "", schemaPath)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, err.Error(), ErrCodeGridNotFound)
		assert.Contains(t, out, "choose one with --grid: items, orders")
	})

	t.Run("named", func(t *testing.T) {
		out, err := runCompileCmd(t, "json", "", schemaPath, "--grid", "items")
		require.NoError(t, err)
		data := decodeResponse(t, []byte(out)).Data.(map[string]any)
		assert.Equal(t, "SELECT * FROM items", data["sql"])
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := runCompileCmd(t, "text", "", schemaPath, "--grid", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `grid "nope" not found`)
	})
}

func TestCompileInvalidExpression(t *testing.T) {
	schemaPath := writeFile(t, "grids.cue", twoGrids)

	out, err := runCompileCmd(t, "json", "", schemaPath, "--grid", "orders")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, []byte(out))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidExpression, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "total amount")
}

func TestCompileMalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"unknown section", "filters: {}", `unknown input section "filters"`},
		{"not an object", "- a\n- b", "input must be an object"},
		{"float", "paginate: {limit: 1.5}", "floats are not allowed"},
		{"bad yaml", "filter: [unclosed", "parsing input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := writeFile(t, "input.yaml", tt.input)
			out, err := runCompileCmd(t, "text", "", usersSchema, "--input", input)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), ErrCodeInvalidInput)
			assert.Contains(t, out, tt.wantMsg)
		})
	}
}

func TestCompileMissingInputFile(t *testing.T) {
	_, err := runCompileCmd(t, "text", "", usersSchema, "--input", "/nonexistent/input.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading input")
}

func TestCompileUnknownDialect(t *testing.T) {
	_, err := runCompileCmd(t, "text", "", usersSchema, "--dialect", "oracle")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `unknown SQL dialect "oracle"`)
}

func TestCompileSchemaNotFound(t *testing.T) {
	out, err := runCompileCmd(t, "text", "", "/nonexistent/grids")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
	assert.Contains(t, out, "schema path not found")
}
