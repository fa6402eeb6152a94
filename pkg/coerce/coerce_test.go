package coerce

import (
	"math"
	"testing"
	"time"

	"github.com/leapstack-labs/leapdq/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, names []string, rows [][]any) *table.Table {
	t.Helper()
	tbl, err := table.FromRows(names, rows)
	require.NoError(t, err)
	return tbl
}

func TestCoerce(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	tests := []struct {
		name         string
		values       []any
		target       Target
		want         []any
		wantFailures []int
	}{
		{
			name:   "datetime from strings",
			values: []any{"2024-03-15", "2024-03-15 10:30:00", "2024-03-15T10:30:00+01:00", " "},
			target: TargetDatetime,
			want: []any{
				time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
				time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
				nil,
			},
		},
		{
			name:   "aware datetime converted to UTC",
			values: []any{time.Date(2024, 3, 15, 1, 0, 0, 0, cet)},
			target: TargetDatetime,
			want:   []any{time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		},
		{
			name:   "datetime from epoch",
			values: []any{int64(1710460800), int64(1710460800000)},
			target: TargetDatetime,
			want: []any{
				time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:         "float epoch outside int64 range",
			values:       []any{1e30, -1e30, 1710460800.0},
			target:       TargetDatetime,
			want:         []any{nil, nil, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
			wantFailures: []int{0, 1},
		},
		{
			name:         "unparseable datetime",
			values:       []any{"yesterday", "2024-03-15"},
			target:       TargetDatetime,
			want:         []any{nil, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
			wantFailures: []int{0},
		},
		{
			name:         "float",
			values:       []any{"1.5", int64(2), 3.25, "abc", nil},
			target:       TargetFloat,
			want:         []any{1.5, 2.0, 3.25, nil, nil},
			wantFailures: []int{3},
		},
		{
			name:         "int",
			values:       []any{"42", 7.0, 7.5, " 3 ", "x"},
			target:       TargetInt,
			want:         []any{int64(42), int64(7), nil, int64(3), nil},
			wantFailures: []int{2, 4},
		},
		{
			name:   "string trims and stringifies",
			values: []any{"  Clinic ", int64(12), nil},
			target: TargetString,
			want:   []any{"Clinic", "12", nil},
		},
		{
			name:         "bool",
			values:       []any{"yes", "False", int64(1), "maybe"},
			target:       TargetBool,
			want:         []any{true, false, true, nil},
			wantFailures: []int{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([][]any, len(tt.values))
			for i, v := range tt.values {
				rows[i] = []any{v}
			}
			in := mustTable(t, []string{"c"}, rows)

			res, err := Coerce(in, Spec{"c": tt.target})
			require.NoError(t, err)

			got, ok := res.Table.Column("c")
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Values)
			assert.Equal(t, tt.target.Type(), got.Type)

			var failedRows []int
			for _, f := range res.Failures {
				assert.Equal(t, "c", f.Column)
				assert.Equal(t, string(tt.target), f.Target)
				failedRows = append(failedRows, f.Row)
			}
			assert.Equal(t, tt.wantFailures, failedRows)
		})
	}
}

func TestCoerce_SkipsAbsentColumns(t *testing.T) {
	in := mustTable(t, []string{"a"}, [][]any{{"1"}})

	out, err := Apply(in, Spec{"a": TargetInt, "not_here": TargetDatetime})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, out.Names())
	assert.Equal(t, int64(1), out.Value(0, "a"))
}

func TestCoerce_DoesNotMutateInput(t *testing.T) {
	in := mustTable(t, []string{"a"}, [][]any{{"1"}, {"2"}})

	_, err := Apply(in, Spec{"a": TargetInt})
	require.NoError(t, err)
	assert.Equal(t, "1", in.Value(0, "a"))
	assert.Equal(t, table.TypeString, in.Schema()[0].Type)
}

func TestCoerce_UnknownTarget(t *testing.T) {
	in := mustTable(t, []string{"a"}, [][]any{{"1"}})

	_, err := Coerce(in, Spec{"a": "decimal"})
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestCoerce_Idempotent(t *testing.T) {
	in := mustTable(t,
		[]string{"visit_date", "min_time_spent", "cost", "name"},
		[][]any{
			{"2024-03-15T10:00:00+02:00", "12", "10.5", " Ann "},
			{"2024-04-01", 30.0, int64(3), "Bob"},
			{"bad", "x", nil, nil},
		},
	)
	spec := Spec{
		"visit_date":     TargetDatetime,
		"min_time_spent": TargetInt,
		"cost":           TargetFloat,
		"name":           TargetString,
	}

	once, err := Apply(in, spec)
	require.NoError(t, err)
	twice, err := Coerce(once, spec)
	require.NoError(t, err)

	assert.True(t, once.Equal(twice.Table))
	assert.Empty(t, twice.Failures)
}

func TestParseSpec(t *testing.T) {
	spec, err := ParseSpec(map[string]string{"visit_date": "datetime64", "n": "Int64"})
	require.NoError(t, err)
	assert.Equal(t, Spec{"visit_date": TargetDatetime, "n": TargetInt}, spec)
	assert.Equal(t, []string{"n", "visit_date"}, spec.Columns())

	_, err = ParseSpec(map[string]string{"x": "complex"})
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestFromEpoch(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, FromEpoch(1710460800))
	assert.Equal(t, want, FromEpoch(1710460800000))
	assert.Equal(t, want, FromEpoch(1710460800000000))
	assert.Equal(t, want, FromEpoch(1710460800000000000))

	oldest := FromEpoch(math.MinInt64)
	assert.Equal(t, time.Unix(0, math.MinInt64).UTC(), oldest)
	assert.Equal(t, 1677, oldest.Year())
}
