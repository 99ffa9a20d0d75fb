package value

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datagrid/internal/ir"
)

func TestScalarValidators(t *testing.T) {
	tests := []struct {
		name      string
		validator Validator
		raw       ir.IRValue
		accepts   bool
		converted ir.IRValue
	}{
		{"any string", Any{}, ir.IRString("x"), true, ir.IRString("x")},
		{"any nil", Any{}, nil, false, nil},
		{"string", String{}, ir.IRString("abc"), true, ir.IRString("abc")},
		{"string empty rejected", String{}, ir.IRString("  "), false, nil},
		{"string empty allowed", String{AllowEmpty: true}, ir.IRString(""), true, ir.IRString("")},
		{"string rejects int", String{}, ir.IRInt(1), false, nil},
		{"int", Int{}, ir.IRInt(7), true, ir.IRInt(7)},
		{"int from string", Int{}, ir.IRString("-12"), true, ir.IRInt(-12)},
		{"int rejects fraction string", Int{}, ir.IRString("1.5"), false, nil},
		{"int rejects bool", Int{}, ir.IRBool(true), false, nil},
		{"bool", Bool{}, ir.IRBool(false), true, ir.IRBool(false)},
		{"bool from string", Bool{}, ir.IRString("TRUE"), true, ir.IRBool(true)},
		{"bool from int", Bool{}, ir.IRInt(0), true, ir.IRBool(false)},
		{"bool rejects 2", Bool{}, ir.IRInt(2), false, nil},
		{"bool rejects yes", Bool{}, ir.IRString("yes"), false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.accepts, tt.validator.Accepts(tt.raw))
			if tt.accepts {
				assert.Equal(t, tt.converted, tt.validator.Convert(tt.raw))
			}
		})
	}
}

func TestRegex(t *testing.T) {
	r, err := NewRegex(`^[a-z]+-\d+$`)
	require.NoError(t, err)

	assert.True(t, r.Accepts(ir.IRString("sku-42")))
	assert.False(t, r.Accepts(ir.IRString("SKU-42")))
	assert.False(t, r.Accepts(ir.IRInt(42)))

	_, err = NewRegex(`(`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestArray(t *testing.T) {
	a := NewArray(Int{})

	assert.True(t, a.Accepts(ir.IRArray{ir.IRInt(1), ir.IRString("2")}))
	assert.Equal(t, ir.IRArray{ir.IRInt(1), ir.IRInt(2)}, a.Convert(ir.IRArray{ir.IRInt(1), ir.IRString("2")}))

	assert.False(t, a.Accepts(ir.IRArray{ir.IRInt(1), ir.IRString("x")}), "one bad element rejects the array")
	assert.False(t, a.Accepts(ir.IRArray{}), "empty arrays are rejected")
	assert.False(t, a.Accepts(ir.IRInt(1)), "scalars are rejected")
	assert.False(t, NewArray(nil).Accepts(ir.IRArray{ir.IRInt(1)}))
}

func TestIsCollection(t *testing.T) {
	enumArgs := []ir.IRValue{ir.IRString("a")}
	intersect, err := NewIntersect(String{}, enumArgs...)
	require.NoError(t, err)
	subset, err := NewSubset(String{}, enumArgs...)
	require.NoError(t, err)

	assert.True(t, IsCollection(NewArray(String{})))
	assert.True(t, IsCollection(intersect))
	assert.True(t, IsCollection(subset))
	assert.False(t, IsCollection(String{}))
	assert.False(t, IsCollection(MustUUID("valid")))
}
