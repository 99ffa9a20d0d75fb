package queryir

import (
	"fmt"
)

// ValidationResult lists suspicious constructs found in a Select.
//
// Warnings never stop rendering; they point at queries that are legal but
// probably not what the caller meant (an empty IN list, an empty group).
type ValidationResult struct {
	// Clean is true when no warnings were found.
	Clean bool

	// Warnings lists the findings in traversal order.
	Warnings []string
}

// Validate inspects a Select and reports warnings.
//
// Checks:
//  1. From must be set
//  2. Every condition uses a known operator
//  3. IN / NOT IN carry a Parameter, other operators do not
//  4. Empty IN lists and empty groups are reported
//  5. Limit and offset are non-negative
//
// Validate is a pure function with no side effects.
func Validate(q *Select) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateSelect(q)

	return ValidationResult{
		Clean:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateSelect(q *Select) {
	if q == nil {
		v.addWarning("nil query")
		return
	}
	if q.From == "" {
		v.addWarning("query has no FROM source")
	}
	if q.RowLimit != nil && *q.RowLimit < 0 {
		v.addWarning("negative limit %d", *q.RowLimit)
	}
	if q.RowOffset != nil && *q.RowOffset < 0 {
		v.addWarning("negative offset %d", *q.RowOffset)
	}
	v.validateGroup(q.Filter, true)
}

func (v *validator) validateGroup(g Group, top bool) {
	if g.Empty() && !top {
		v.addWarning("empty condition group - always true")
	}
	for _, clause := range g.Clauses {
		v.validatePredicate(clause.Predicate)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Condition:
		v.validateCondition(pred)
	case Group:
		v.validateGroup(pred, false)
	default:
		v.addWarning("unknown predicate type: %T", p)
	}
}

func (v *validator) validateCondition(c Condition) {
	if !KnownOperator(c.Op) {
		v.addWarning("field '%s' uses unknown operator %q", c.Field, c.Op)
		return
	}
	param, isParam := c.Value.(Parameter)
	switch c.Op {
	case OpIn, OpNotIn:
		if !isParam {
			v.addWarning("field '%s' %s expects a parameter list, got %T", c.Field, c.Op, c.Value)
			return
		}
		if len(param.Values) == 0 {
			v.addWarning("field '%s' %s an empty list", c.Field, c.Op)
		}
	default:
		if isParam {
			v.addWarning("field '%s' compares a parameter list with %s", c.Field, c.Op)
		}
	}
}
