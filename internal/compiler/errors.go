package compiler

import (
	"errors"
	"fmt"
)

// Error is returned when a writer recognizes a node but cannot write it.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the specification kind being written, e.g. "spec.Equals".
	Kind string

	// Expr is the offending expression, when there is one.
	Expr string
}

// ErrorCode categorizes compiler errors.
type ErrorCode string

const (
	// ErrCodeUnresolvedValue indicates a value slot still holds a placeholder.
	ErrCodeUnresolvedValue ErrorCode = "UNRESOLVED_VALUE"

	// ErrCodeInvalidExpression indicates an expression is not a plain identifier.
	ErrCodeInvalidExpression ErrorCode = "INVALID_EXPRESSION"

	// ErrCodeInvalidPagination indicates a negative limit or offset.
	ErrCodeInvalidPagination ErrorCode = "INVALID_PAGINATION"

	// ErrCodeInvalidValue indicates a literal that cannot be passed as a
	// query parameter.
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Kind != "" && e.Expr != "":
		return fmt.Sprintf("%s: %s (%s %q)", e.Code, e.Message, e.Kind, e.Expr)
	case e.Kind != "":
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Kind)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsUnresolvedValue reports whether err is, or wraps, an unresolved
// placeholder error.
func IsUnresolvedValue(err error) bool {
	return hasCode(err, ErrCodeUnresolvedValue)
}

// IsInvalidExpression reports whether err is, or wraps, an invalid
// expression error.
func IsInvalidExpression(err error) bool {
	return hasCode(err, ErrCodeInvalidExpression)
}

// IsInvalidPagination reports whether err is, or wraps, an invalid
// pagination error.
func IsInvalidPagination(err error) bool {
	return hasCode(err, ErrCodeInvalidPagination)
}

func hasCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// NewUnresolvedValueError reports a placeholder reaching a writer.
func NewUnresolvedValueError(kind, expr string) *Error {
	return &Error{
		Code:    ErrCodeUnresolvedValue,
		Message: "value expects user input, none given",
		Kind:    kind,
		Expr:    expr,
	}
}

// NewInvalidExpressionError reports an expression that is not an identifier.
func NewInvalidExpressionError(kind, expr string) *Error {
	return &Error{
		Code:    ErrCodeInvalidExpression,
		Message: "expression must be an identifier or table.identifier",
		Kind:    kind,
		Expr:    expr,
	}
}

// NewInvalidPaginationError reports a negative limit or offset.
func NewInvalidPaginationError(kind string, n int) *Error {
	return &Error{
		Code:    ErrCodeInvalidPagination,
		Message: fmt.Sprintf("must be non-negative, got %d", n),
		Kind:    kind,
	}
}

// NewInvalidValueError reports a literal that cannot be bound as a parameter.
func NewInvalidValueError(kind, expr string, cause error) *Error {
	return &Error{
		Code:    ErrCodeInvalidValue,
		Message: cause.Error(),
		Kind:    kind,
		Expr:    expr,
	}
}
