package cli

import (
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/datagrid/internal/compiler"
	"github.com/roach88/datagrid/internal/schema"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeNoGrids      = "E007" // Schema declares no grids
	ErrCodeGridNotFound = "E008" // Requested grid does not exist
	ErrCodeInvalidInput = "E009" // Request input unreadable or malformed

	// Grid declaration errors
	ErrCodeGridSource     = "E101" // from / columns
	ErrCodeGridFilter     = "E102" // filter kind, expr or slot
	ErrCodeGridSorter     = "E103" // sorter expressions
	ErrCodeGridPagination = "E104" // limit / max
	ErrCodeGridValidator  = "E105" // value validator

	// Query compile errors
	ErrCodeUnresolvedValue   = "E201" // placeholder reached the writer
	ErrCodeInvalidExpression = "E202" // expression is not an identifier
	ErrCodeInvalidPagination = "E203" // negative limit or offset
	ErrCodeInvalidValue      = "E204" // literal cannot be bound
	ErrCodeRenderFailed      = "E205" // SQL rendering failed
)

// Diagnostic is one load or validation problem with its source position.
type Diagnostic struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// LoadSchema loads grids from a CUE file or directory. A nil schema means
// nothing could be loaded; otherwise diagnostics describe the grids that
// failed to compile.
func LoadSchema(path string) (*schema.Schema, []Diagnostic) {
	sch, errs := schema.Load(path)
	diags := make([]Diagnostic, 0, len(errs))
	for _, err := range errs {
		diags = append(diags, diagnose(err))
	}
	if sch != nil && len(sch.Grids) == 0 && len(diags) == 0 {
		diags = append(diags, Diagnostic{
			Code:    ErrCodeNoGrids,
			Message: fmt.Sprintf("no grids declared in %s", path),
		})
	}
	return sch, diags
}

// diagnose converts a schema or compiler error into a Diagnostic.
func diagnose(err error) Diagnostic {
	var loadErr *schema.LoadError
	if errors.As(err, &loadErr) {
		d := Diagnostic{Code: loadErrorCode(loadErr.Code), Message: loadErr.Message}
		withPos(&d, loadErr.Pos)
		return d
	}

	var compileErr *schema.CompileError
	if errors.As(err, &compileErr) {
		d := Diagnostic{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Field:   compileErr.Field,
			Message: compileErr.Message,
		}
		withPos(&d, compileErr.Pos)
		return d
	}

	var queryErr *compiler.Error
	if errors.As(err, &queryErr) {
		return Diagnostic{
			Code:    compilerErrorCode(queryErr.Code),
			Field:   queryErr.Expr,
			Message: err.Error(),
		}
	}

	return Diagnostic{Code: ErrCodeGeneric, Message: err.Error()}
}

func withPos(d *Diagnostic, pos token.Pos) {
	if !pos.IsValid() {
		return
	}
	d.File = pos.Filename()
	d.Line = pos.Line()
	d.Column = pos.Column()
}

func loadErrorCode(code schema.LoadErrorCode) string {
	switch code {
	case schema.ErrCodeNotFound:
		return ErrCodeNotFound
	case schema.ErrCodeNoFiles:
		return ErrCodeNoFiles
	case schema.ErrCodeLoadFailed:
		return ErrCodeLoadFailed
	case schema.ErrCodeBuildFailed:
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}

func compilerErrorCode(code compiler.ErrorCode) string {
	switch code {
	case compiler.ErrCodeUnresolvedValue:
		return ErrCodeUnresolvedValue
	case compiler.ErrCodeInvalidExpression:
		return ErrCodeInvalidExpression
	case compiler.ErrCodeInvalidPagination:
		return ErrCodeInvalidPagination
	case compiler.ErrCodeInvalidValue:
		return ErrCodeInvalidValue
	default:
		return ErrCodeGeneric
	}
}

// MapFieldToErrorCode maps a grid compile error field such as
// "grid.users.filters.status.value" to an error code. Segments are read by
// position so filter names never shadow keywords.
func MapFieldToErrorCode(field string) string {
	parts := strings.Split(field, ".")
	if len(parts) < 3 || parts[0] != "grid" {
		return ErrCodeGeneric
	}

	switch parts[2] {
	case "from", "columns":
		return ErrCodeGridSource
	case "sorters":
		return ErrCodeGridSorter
	case "pagination":
		return ErrCodeGridPagination
	case "filters":
		// grid.<name>.filters.<filter>[.entries.<entry>|.filters...].<key>
		for i := 4; i < len(parts); i++ {
			switch parts[i] {
			case "value", "literal", "of", "values":
				return ErrCodeGridValidator
			}
		}
		return ErrCodeGridFilter
	default:
		return ErrCodeGeneric
	}
}

// isCommandError reports whether diagnostics mean the path itself was
// unusable rather than a grid being invalid.
func isCommandError(diags []Diagnostic) bool {
	for _, d := range diags {
		switch d.Code {
		case ErrCodeNotFound, ErrCodeNoFiles, ErrCodeScanError:
			return true
		}
	}
	return false
}

// location renders "file:line:col" or "".
func (d Diagnostic) location() string {
	if d.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column)
}
