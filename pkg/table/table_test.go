package table

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visits(t *testing.T) *Table {
	t.Helper()
	tbl, err := FromRows(
		[]string{"facility_type", "cost", "visits"},
		[][]any{
			{"Clinic", 12.5, 3},
			{"Hospital", 99.0, int32(7)},
			{"Clinic", nil, 1},
		},
	)
	require.NoError(t, err)
	return tbl
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cols    []Column
		wantErr string
		wantLen int
	}{
		{
			name:    "empty table",
			wantLen: 0,
		},
		{
			name: "two columns",
			cols: []Column{
				{Name: "a", Values: []any{1, 2}},
				{Name: "b", Values: []any{"x", "y"}},
			},
			wantLen: 2,
		},
		{
			name: "unequal lengths",
			cols: []Column{
				{Name: "a", Values: []any{1, 2}},
				{Name: "b", Values: []any{"x"}},
			},
			wantErr: "column has 1 values, table has 2 rows",
		},
		{
			name: "duplicate names",
			cols: []Column{
				{Name: "a", Values: []any{1}},
				{Name: "a", Values: []any{2}},
			},
			wantErr: "duplicate column name",
		},
		{
			name:    "unnamed column",
			cols:    []Column{{Values: []any{1}}},
			wantErr: "has no name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := New(tt.cols...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, errors.Is(err, core.ErrSchema))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, tbl.Len())
		})
	}
}

func TestNew_CopiesAndNormalizes(t *testing.T) {
	values := []any{int32(1), float32(2.5), []byte("x")}
	tbl, err := New(Column{Name: "v", Values: values})
	require.NoError(t, err)

	values[0] = "mutated"
	got, _ := tbl.Column("v")
	assert.Equal(t, []any{int64(1), 2.5, "x"}, got.Values)
	assert.Equal(t, TypeAny, got.Type, "mixed number and string infers any")
}

func TestFromRows(t *testing.T) {
	tbl := visits(t)

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"facility_type", "cost", "visits"}, tbl.Names())
	assert.Equal(t, Schema{
		{Name: "facility_type", Type: TypeString},
		{Name: "cost", Type: TypeFloat64},
		{Name: "visits", Type: TypeInt64},
	}, tbl.Schema())
	assert.Equal(t, []any{"Hospital", 99.0, int64(7)}, tbl.Row(1))

	_, err := FromRows([]string{"a", "b"}, [][]any{{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSchema)
}

func TestSelect(t *testing.T) {
	tbl := visits(t)

	sel, err := tbl.Select("visits", "facility_type")
	require.NoError(t, err)
	assert.Equal(t, []string{"visits", "facility_type"}, sel.Names())
	assert.Equal(t, 3, sel.Len())

	_, err = tbl.Select("nope")
	var se *core.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "nope", se.Column)
}

func TestWithColumnDoesNotMutateReceiver(t *testing.T) {
	tbl := visits(t)

	replaced, err := tbl.WithColumn(Column{Name: "cost", Values: []any{1.0, 2.0, 3.0}})
	require.NoError(t, err)
	assert.Equal(t, 2.0, replaced.Value(1, "cost"))
	assert.Equal(t, 99.0, tbl.Value(1, "cost"))

	added, err := tbl.WithColumn(Column{Name: "extra", Values: []any{true, false, true}})
	require.NoError(t, err)
	assert.Equal(t, 4, added.Width())
	assert.Equal(t, 3, tbl.Width())

	_, err = tbl.WithColumn(Column{Name: "short", Values: []any{1}})
	assert.ErrorIs(t, err, core.ErrSchema)
}

func TestRename(t *testing.T) {
	tbl := visits(t)

	renamed, err := tbl.Rename(map[string]string{"cost": "treatment_cost"})
	require.NoError(t, err)
	assert.True(t, renamed.Has("treatment_cost"))
	assert.False(t, renamed.Has("cost"))
	assert.True(t, tbl.Has("cost"))

	_, err = tbl.Rename(map[string]string{"cost": "visits"})
	assert.ErrorIs(t, err, core.ErrSchema)
}

func TestFilterAndTake(t *testing.T) {
	tbl := visits(t)

	clinics := tbl.Filter(func(r int) bool { return tbl.Value(r, "facility_type") == "Clinic" })
	assert.Equal(t, 2, clinics.Len())

	reversed := tbl.Take([]int{2, 1, 0})
	assert.Equal(t, int64(1), reversed.Value(0, "visits"))
}

func TestTableEqual(t *testing.T) {
	a := visits(t)
	b := visits(t)
	assert.True(t, a.Equal(b))

	c, err := b.WithColumn(Column{Name: "visits", Values: []any{3, 7, 2}})
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}

func TestSchema(t *testing.T) {
	s := Schema{{Name: "a", Type: TypeInt64}, {Name: "b", Type: TypeString}}
	reordered := Schema{{Name: "b", Type: TypeString}, {Name: "a", Type: TypeInt64}}

	assert.True(t, s.Equal(reordered))
	assert.Equal(t, []string{"c", "d"}, s.Missing([]string{"d", "a", "c", "c"}))
	assert.Empty(t, s.Missing([]string{"a"}))
}
