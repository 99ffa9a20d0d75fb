package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datagrid/internal/ir"
	"github.com/roach88/datagrid/internal/value"
)

func TestSpecificationSealed(t *testing.T) {
	specs := []Specification{
		Equals{}, NotEquals{}, Lt{}, Lte{}, Gt{}, Gte{}, Like{}, InArray{}, NotInArray{},
		All{}, Any{}, Map{}, Sorter{}, Directional{}, Limit{}, Offset{},
	}
	assert.Len(t, specs, 16)

	var _ Filter = Equals{}
	var _ Filter = &Any{}
	var _ Atomic = Like{}
}

func TestInArrayWrapsScalarSlots(t *testing.T) {
	in := NewInArray("id", Expect(value.Int{}))
	placeholder, ok := in.Value.(Placeholder)
	require.True(t, ok)
	assert.IsType(t, value.Array{}, placeholder.Validator)

	intersect, err := value.NewIntersect(value.String{}, ir.IRString("a"))
	require.NoError(t, err)
	notIn := NewNotInArray("tag", Expect(intersect))
	assert.IsType(t, value.Intersect{}, notIn.Value.(Placeholder).Validator, "collections are not wrapped twice")

	lit := NewInArray("id", Lit(ir.IRInt(3)))
	assert.Equal(t, Literal{Value: ir.IRArray{ir.IRInt(3)}}, lit.Value)

	list := NewInArray("id", Lit(ir.IRArray{ir.IRInt(1), ir.IRInt(2)}))
	assert.Equal(t, Literal{Value: ir.IRArray{ir.IRInt(1), ir.IRInt(2)}}, list.Value)
}

func TestConstructorsCopySlices(t *testing.T) {
	children := []Filter{NewEquals("a", Lit(ir.IRInt(1)))}
	all := NewAll(children...)
	children[0] = NewEquals("b", Lit(ir.IRInt(2)))
	assert.Equal(t, "a", all.Filters[0].(Equals).Expr)

	exprs := []string{"name", "id"}
	sorter := Asc(exprs...)
	exprs[0] = "changed"
	assert.Equal(t, []string{"name", "id"}, sorter.Expressions)
}

func TestMapChildrenOrder(t *testing.T) {
	m := NewMap(
		Named("from", NewGte("created", Expect(value.Int{}))),
		Named("to", NewLte("created", Expect(value.Int{}))),
	)
	children := m.Children()
	require.Len(t, children, 2)
	assert.IsType(t, Gte{}, children[0])
	assert.IsType(t, Lte{}, children[1])
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%%%s%%", NewLike("name", Lit(ir.IRString("x"))).Pattern)
	assert.Equal(t, "%s%%", NewLikePattern("name", "%s%%", Lit(ir.IRString("x"))).Pattern)
}

func TestDirectionalSorter(t *testing.T) {
	d := NewDirectional("name", "id")

	tests := []struct {
		raw  ir.IRValue
		want Direction
		ok   bool
	}{
		{ir.IRString("asc"), Ascending, true},
		{ir.IRString("DESC"), Descending, true},
		{ir.IRString("1"), Ascending, true},
		{ir.IRString("-1"), Descending, true},
		{ir.IRInt(-1), Descending, true},
		{ir.IRString("sideways"), Ascending, false},
		{ir.IRBool(true), Ascending, false},
		{nil, Ascending, false},
	}
	for _, tt := range tests {
		sorter, ok := d.WithDirection(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw=%v", tt.raw)
		if ok {
			assert.Equal(t, tt.want, sorter.Direction)
			assert.Equal(t, []string{"name", "id"}, sorter.Expressions)
		}
	}
}

func TestPaginationConstructors(t *testing.T) {
	limit, err := NewLimit(10)
	require.NoError(t, err)
	assert.Equal(t, 10, limit.N)

	offset, err := NewOffset(0)
	require.NoError(t, err)
	assert.Equal(t, 0, offset.N)

	_, err = NewLimit(-1)
	require.Error(t, err)
	_, err = NewOffset(-5)
	require.Error(t, err)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "ASC", Ascending.String())
	assert.Equal(t, "DESC", Descending.String())
}
