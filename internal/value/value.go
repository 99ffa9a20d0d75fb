package value

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/datagrid/internal/ir"
)

// ErrInvalidArgument is returned (wrapped) by validator constructors given a
// configuration they cannot honor.
var ErrInvalidArgument = errors.New("invalid argument")

// Validator decides whether raw input has an acceptable shape and converts it
// into a backend-safe literal.
type Validator interface {
	// Accepts reports whether raw conforms. Must not panic; nil is rejected.
	Accepts(raw ir.IRValue) bool

	// Convert returns the literal for raw. Only defined when Accepts(raw).
	Convert(raw ir.IRValue) ir.IRValue
}

// Any accepts every non-nil value and converts it unchanged.
type Any struct{}

func (Any) Accepts(raw ir.IRValue) bool { return raw != nil }

func (Any) Convert(raw ir.IRValue) ir.IRValue { return raw }

// String accepts string values. Empty strings are rejected unless
// AllowEmpty is set.
type String struct {
	AllowEmpty bool
}

func (s String) Accepts(raw ir.IRValue) bool {
	str, ok := raw.(ir.IRString)
	if !ok {
		return false
	}
	return s.AllowEmpty || strings.TrimSpace(string(str)) != ""
}

func (String) Convert(raw ir.IRValue) ir.IRValue { return raw }

// Int accepts integers and integer-shaped strings ("42", "-7").
type Int struct{}

func (Int) Accepts(raw ir.IRValue) bool {
	_, ok := parseInt(raw)
	return ok
}

func (Int) Convert(raw ir.IRValue) ir.IRValue {
	n, _ := parseInt(raw)
	return ir.IRInt(n)
}

func parseInt(raw ir.IRValue) (int64, bool) {
	switch v := raw.(type) {
	case ir.IRInt:
		return int64(v), true
	case ir.IRString:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Bool accepts booleans, 0/1 and the strings "true", "false", "1", "0".
type Bool struct{}

func (Bool) Accepts(raw ir.IRValue) bool {
	_, ok := parseBool(raw)
	return ok
}

func (Bool) Convert(raw ir.IRValue) ir.IRValue {
	b, _ := parseBool(raw)
	return ir.IRBool(b)
}

func parseBool(raw ir.IRValue) (bool, bool) {
	switch v := raw.(type) {
	case ir.IRBool:
		return bool(v), true
	case ir.IRInt:
		switch v {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	case ir.IRString:
		switch strings.ToLower(strings.TrimSpace(string(v))) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	}
	return false, false
}

// Regex accepts strings matching a pattern.
type Regex struct {
	re *regexp.Regexp
}

// NewRegex compiles pattern into a validator.
func NewRegex(pattern string) (Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Regex{}, fmt.Errorf("%w: regex %q: %v", ErrInvalidArgument, pattern, err)
	}
	return Regex{re: re}, nil
}

func (r Regex) Accepts(raw ir.IRValue) bool {
	str, ok := raw.(ir.IRString)
	return ok && r.re != nil && r.re.MatchString(string(str))
}

func (Regex) Convert(raw ir.IRValue) ir.IRValue { return raw }

// Array accepts a non-empty sequence whose every element is accepted by the
// inner validator. Convert maps the inner conversion over the elements.
type Array struct {
	inner Validator
}

// NewArray wraps inner so it validates sequences.
func NewArray(inner Validator) Array {
	return Array{inner: inner}
}

// Inner returns the element validator.
func (a Array) Inner() Validator { return a.inner }

func (a Array) Accepts(raw ir.IRValue) bool {
	arr, ok := raw.(ir.IRArray)
	if !ok || len(arr) == 0 || a.inner == nil {
		return false
	}
	for _, elem := range arr {
		if !a.inner.Accepts(elem) {
			return false
		}
	}
	return true
}

func (a Array) Convert(raw ir.IRValue) ir.IRValue {
	arr, _ := raw.(ir.IRArray)
	out := make(ir.IRArray, len(arr))
	for i, elem := range arr {
		out[i] = a.inner.Convert(elem)
	}
	return out
}

// IsCollection reports whether v already validates sequences, so callers
// expecting list input do not wrap it a second time.
func IsCollection(v Validator) bool {
	switch v.(type) {
	case Array, Intersect, Subset:
		return true
	default:
		return false
	}
}
