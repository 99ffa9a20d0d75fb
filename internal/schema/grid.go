package schema

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/datagrid/internal/compiler"
	"github.com/roach88/datagrid/internal/queryir"
	"github.com/roach88/datagrid/internal/spec"
)

// Schema is a set of grids keyed by name.
type Schema struct {
	Grids []*Grid
}

// Grid returns the grid called name.
func (s *Schema) Grid(name string) (*Grid, bool) {
	for _, g := range s.Grids {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// Names returns grid names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Grids))
	for i, g := range s.Grids {
		names[i] = g.Name
	}
	return names
}

// Grid is one compiled grid declaration.
type Grid struct {
	Name       string
	From       string
	Columns    []string
	Filters    []NamedFilter
	Sorters    []NamedSorter
	Pagination Pagination
	Pos        token.Pos
}

// NamedFilter is a filter callers address by name in input.
type NamedFilter struct {
	Name   string
	Filter spec.Filter
}

// NamedSorter is a sorter callers address by name; the direction comes from
// input.
type NamedSorter struct {
	Name   string
	Sorter spec.Directional
}

// Pagination holds the grid's page bounds. Zero means unset.
type Pagination struct {
	// Limit is applied when input gives none.
	Limit int

	// Max caps any limit, default or requested.
	Max int
}

// Select returns an empty query over the grid's source and columns.
func (g *Grid) Select() *queryir.Select {
	return queryir.NewSelect(g.From, g.Columns...)
}

// Apply compiles the bound specifications into a new query over the grid.
// Every specification must be handled by c.
func (b Bound) Apply(c *compiler.Compiler) (*queryir.Select, error) {
	q := b.Grid.Select()
	unhandled, err := c.Compile(q, b.Specifications()...)
	if err != nil {
		return nil, fmt.Errorf("grid %s: %w", b.Grid.Name, err)
	}
	if len(unhandled) > 0 {
		return nil, fmt.Errorf("grid %s: %d specification(s) not handled, first is %s",
			b.Grid.Name, len(unhandled), compiler.Kind(unhandled[0]))
	}
	return q, nil
}

// CompileError is returned when a grid declaration is invalid.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
