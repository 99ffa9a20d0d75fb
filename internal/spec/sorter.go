package spec

import (
	"strings"

	"github.com/roach88/datagrid/internal/ir"
)

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// Sorter orders rows by Expressions, left to right, in one direction.
// Duplicates are preserved as given.
type Sorter struct {
	Direction   Direction
	Expressions []string
}

func (Sorter) specification() {}

// Asc sorts ascending by exprs.
func Asc(exprs ...string) Sorter {
	return Sorter{Direction: Ascending, Expressions: append([]string(nil), exprs...)}
}

// Desc sorts descending by exprs.
func Desc(exprs ...string) Sorter {
	return Sorter{Direction: Descending, Expressions: append([]string(nil), exprs...)}
}

// Directional is a sorter whose direction comes from caller input.
// It is not writable itself; WithDirection picks the concrete Sorter.
type Directional struct {
	Asc  Sorter
	Desc Sorter
}

func (Directional) specification() {}

// NewDirectional sorts by the same expressions in either direction.
func NewDirectional(exprs ...string) Directional {
	return Directional{Asc: Asc(exprs...), Desc: Desc(exprs...)}
}

// WithDirection resolves raw into one of the two sorters. Accepted input:
// "asc"/"desc" (any case), "1"/"-1", 1/-1.
func (d Directional) WithDirection(raw ir.IRValue) (Sorter, bool) {
	switch v := raw.(type) {
	case ir.IRString:
		switch strings.ToLower(strings.TrimSpace(string(v))) {
		case "asc", "1":
			return d.Asc, true
		case "desc", "-1":
			return d.Desc, true
		}
	case ir.IRInt:
		switch v {
		case 1:
			return d.Asc, true
		case -1:
			return d.Desc, true
		}
	}
	return Sorter{}, false
}
