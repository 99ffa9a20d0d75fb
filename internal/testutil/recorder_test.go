package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/datagrid/internal/queryir"
)

func TestRecorder_RecordsNestedGroups(t *testing.T) {
	r := NewRecorder()

	r.Where("status", "=", "active")
	r.WhereGroup(func(b queryir.Builder) {
		b.OrWhereGroup(func(b queryir.Builder) {
			b.Where("id", ">", int64(3))
		})
	})
	r.OrderBy(queryir.Desc, "created_at", "id")
	r.Limit(10)
	r.Offset(20)

	assert.Equal(t, []string{
		`where(status = "active")`,
		`whereGroup[orWhereGroup[where(id > 3)]]`,
		`orderBy(DESC, created_at, id)`,
		`limit(10)`,
		`offset(20)`,
	}, r.Strings())
}

func TestRecorder_CheckpointRestore(t *testing.T) {
	r := NewRecorder()
	r.Limit(1)

	restore := r.Checkpoint()
	r.Offset(2)
	r.Where("a", "=", "b")
	restore()

	assert.Equal(t, []string{"limit(1)"}, r.Strings())
}
