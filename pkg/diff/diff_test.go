package diff

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func facilities(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.FromRows(
		[]string{"facility_type", "partition_date", "avg_time_spent"},
		[][]any{
			{"Hospital", "2024-03", 41.5},
			{"Clinic", "2024-03", 22.25},
			{"Clinic", "2024-04", 18.0},
			{"Specialty Center", "2024-03", 35.1},
		},
	)
	require.NoError(t, err)
	return tbl
}

func TestDiff_Reflexive(t *testing.T) {
	tbl := facilities(t)

	r, err := Diff(tbl, tbl)
	require.NoError(t, err)
	assert.True(t, r.Equal)
	assert.Empty(t, r.CellDiffs)
	assert.Equal(t, []string{"avg_time_spent", "facility_type", "partition_date"}, r.Columns)
}

func TestDiff_OrderInsensitive(t *testing.T) {
	tbl := facilities(t)

	permuted := tbl.Take([]int{3, 1, 0, 2})
	reordered, err := tbl.Select("avg_time_spent", "partition_date", "facility_type")
	require.NoError(t, err)

	for name, other := range map[string]*table.Table{"rows permuted": permuted, "columns reordered": reordered} {
		t.Run(name, func(t *testing.T) {
			r, err := Diff(tbl, other)
			require.NoError(t, err)
			assert.True(t, r.Equal, r.Summary())
		})
	}
}

func TestDiff_WhitespaceAndTimezones(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	aware, err := table.FromRows(
		[]string{" visit_date", "name"},
		[][]any{
			{time.Date(2024, 3, 15, 11, 0, 0, 0, cet), " Ann "},
			{time.Date(2024, 3, 16, 1, 0, 0, 0, cet), "Bob"},
		},
	)
	require.NoError(t, err)
	naive, err := table.FromRows(
		[]string{"visit_date", "name"},
		[][]any{
			{time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), "Ann"},
			{time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), "Bob"},
		},
	)
	require.NoError(t, err)

	r, err := Diff(aware, naive)
	require.NoError(t, err)
	assert.True(t, r.Equal, r.Summary())
}

func TestDiff_SingleCell(t *testing.T) {
	expected := facilities(t)
	actual, err := expected.Map("avg_time_spent", table.TypeFloat64, func(v any) any {
		if v.(float64) == 22.25 {
			return 22.26
		}
		return v
	})
	require.NoError(t, err)

	r, err := Diff(expected, actual)
	require.NoError(t, err)
	assert.False(t, r.Equal)
	require.Len(t, r.CellDiffs, 1)
	assert.Equal(t, CellDiff{Row: 1, Column: "avg_time_spent", Expected: 22.25, Actual: 22.26}, r.CellDiffs[0])
	assert.Equal(t, []string{"avg_time_spent"}, r.DiffColumns())
}

func TestDiff_SchemaDifferencesDegradeGracefully(t *testing.T) {
	expected := facilities(t)
	actual, err := expected.Select("facility_type", "partition_date")
	require.NoError(t, err)
	actual, err = actual.WithColumn(table.Column{Name: "extra", Values: []any{1, 2, 3, 4}})
	require.NoError(t, err)
	actual, err = actual.Map("facility_type", table.TypeString, func(v any) any {
		if v == "Hospital" {
			return "Hospitals"
		}
		return v
	})
	require.NoError(t, err)

	r, err := Diff(expected, actual)
	require.NoError(t, err)
	assert.False(t, r.Equal)
	assert.Equal(t, []string{"avg_time_spent"}, r.MissingColumns)
	assert.Equal(t, []string{"extra"}, r.ExtraColumns)
	assert.Equal(t, []string{"facility_type", "partition_date"}, r.Columns)
	require.Len(t, r.CellDiffs, 1)
	assert.Equal(t, "facility_type", r.CellDiffs[0].Column)
	assert.Equal(t, "Hospital", r.CellDiffs[0].Expected)
	assert.Equal(t, "Hospitals", r.CellDiffs[0].Actual)
}

func TestDiff_RowCountMismatchSkipsCells(t *testing.T) {
	expected := facilities(t)
	actual := expected.Take([]int{0, 1})

	r, err := Diff(expected, actual)
	require.NoError(t, err)
	assert.False(t, r.Equal)
	assert.Equal(t, &RowCounts{Expected: 4, Actual: 2}, r.RowCountMismatch)
	assert.Empty(t, r.CellDiffs)
}

func TestDiff_MixedTypesUseTypedEquality(t *testing.T) {
	a, err := table.FromRows([]string{"v"}, [][]any{{"1"}, {int64(2)}})
	require.NoError(t, err)
	b, err := table.FromRows([]string{"v"}, [][]any{{int64(2)}, {int64(1)}})
	require.NoError(t, err)

	r, err := Diff(a, b)
	require.NoError(t, err)
	assert.False(t, r.Equal)
	require.Len(t, r.CellDiffs, 1)
	assert.Equal(t, "1", r.CellDiffs[0].Expected)
	assert.Equal(t, int64(1), r.CellDiffs[0].Actual)
}

func TestDiff_NilInput(t *testing.T) {
	_, err := Diff(nil, facilities(t))
	assert.ErrorIs(t, err, core.ErrSchema)
}

func TestDiff_DoesNotMutateInputs(t *testing.T) {
	tbl := facilities(t)
	_, err := Diff(tbl, tbl.Take([]int{3, 2, 1, 0}))
	require.NoError(t, err)
	assert.Equal(t, "Hospital", tbl.Value(0, "facility_type"))
	assert.Equal(t, []string{"facility_type", "partition_date", "avg_time_spent"}, tbl.Names())
}

func TestCanonicalize_NameCollision(t *testing.T) {
	tbl, err := table.FromRows([]string{"a", " a"}, [][]any{{1, 2}})
	require.NoError(t, err)

	_, err = Canonicalize(tbl)
	assert.ErrorIs(t, err, core.ErrSchema)
}

func TestRender(t *testing.T) {
	r := &Report{
		Columns: []string{"avg_time_spent"},
		CellDiffs: []CellDiff{
			{Row: 0, Column: "avg_time_spent", Expected: 1.5, Actual: 1.51},
			{Row: 3, Column: "avg_time_spent", Expected: nil, Actual: 2.0},
		},
	}

	var text bytes.Buffer
	require.NoError(t, r.Render(&text, FormatText, 1))
	assert.Contains(t, text.String(), "datasets differ: 2 cell difference(s)")
	assert.Contains(t, text.String(), "1.51")
	assert.Contains(t, strings.ToLower(text.String()), "1 more")

	var md bytes.Buffer
	require.NoError(t, r.Render(&md, FormatMarkdown, 0))
	assert.Contains(t, strings.ToLower(md.String()), "| row | column | expected | actual |")
	assert.Contains(t, md.String(), "NULL")

	var js bytes.Buffer
	require.NoError(t, r.Render(&js, FormatJSON, 0))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, false, decoded["equal"])
}
