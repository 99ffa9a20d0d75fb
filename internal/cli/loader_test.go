package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datagrid/internal/compiler"
	"github.com/roach88/datagrid/internal/schema"
)

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"grid.users.from", ErrCodeGridSource},
		{"grid.users.columns", ErrCodeGridSource},
		{"grid.users.filters.status.kind", ErrCodeGridFilter},
		{"grid.users.filters.age.entries", ErrCodeGridFilter},
		{"grid.users.filters.status.value", ErrCodeGridValidator},
		{"grid.users.filters.status.value.enum.values", ErrCodeGridValidator},
		{"grid.users.filters.visible.literal", ErrCodeGridValidator},
		{"grid.users.filters.value.kind", ErrCodeGridFilter},
		{"grid.users.sorters.name", ErrCodeGridSorter},
		{"grid.users.pagination.limit", ErrCodeGridPagination},
		{"grid.users.filters", ErrCodeGridFilter},
		{"cue", ErrCodeGeneric},
		{"", ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field))
		})
	}
}

func TestDiagnose(t *testing.T) {
	t.Run("load error", func(t *testing.T) {
		d := diagnose(&schema.LoadError{Code: schema.ErrCodeNoFiles, Message: "no CUE files found in x"})
		assert.Equal(t, ErrCodeNoFiles, d.Code)
		assert.Equal(t, "no CUE files found in x", d.Message)
		assert.Empty(t, d.location())
	})

	t.Run("compile error", func(t *testing.T) {
		d := diagnose(&schema.CompileError{Field: "grid.users.sorters.name", Message: "sorter requires at least one expression"})
		assert.Equal(t, ErrCodeGridSorter, d.Code)
		assert.Equal(t, "grid.users.sorters.name", d.Field)
	})

	t.Run("wrapped compiler error", func(t *testing.T) {
		err := errors.Join(errors.New("grid users"), &compiler.Error{
			Code:    compiler.ErrCodeInvalidPagination,
			Message: "limit must be non-negative",
			Kind:    "spec.Limit",
		})
		d := diagnose(err)
		assert.Equal(t, ErrCodeInvalidPagination, d.Code)
	})

	t.Run("other", func(t *testing.T) {
		d := diagnose(errors.New("boom"))
		assert.Equal(t, ErrCodeGeneric, d.Code)
		assert.Equal(t, "boom", d.Message)
	})
}

func TestLoadSchema(t *testing.T) {
	sch, diags := LoadSchema(usersSchema)
	require.NotNil(t, sch)
	assert.Empty(t, diags)
	assert.Equal(t, []string{"users"}, sch.Names())

	sch, diags = LoadSchema("/nonexistent")
	assert.Nil(t, sch)
	require.Len(t, diags, 1)
	assert.Equal(t, ErrCodeNotFound, diags[0].Code)
	assert.True(t, isCommandError(diags))
}
