package harness

import "github.com/roach88/datagrid/internal/ir"

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall success: every assertion held and nothing
	// failed unexpectedly.
	Pass bool `json:"pass"`

	// Grid is the grid the scenario ran against.
	Grid string `json:"grid"`

	// SQL and Params are the rendered query. Empty when compiling failed.
	SQL    string `json:"sql"`
	Params []any  `json:"params"`

	// Rejected and Unknown echo the binding outcome.
	Rejected []string `json:"rejected"`
	Unknown  []string `json:"unknown"`

	// Rows holds the selected rows; nil when the scenario has no fixtures.
	Rows []ir.IRObject `json:"rows,omitempty"`

	// Error is the compile or render failure, if any.
	Error string `json:"error,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(grid string) *Result {
	return &Result{
		Pass:     true,
		Grid:     grid,
		Params:   []any{},
		Rejected: []string{},
		Unknown:  []string{},
		Errors:   []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
