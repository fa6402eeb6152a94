// Package expected derives the expected output datasets from the normalized
// layer. It offers the small relational toolkit the derivations need (left
// join, group and aggregate, derived columns) on top of pkg/table.
package expected

import (
	"fmt"
	"math"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// LeftJoin returns every row of left extended with the columns of right
// whose rightKey equals the row's leftKey. Rows without a match get missing
// values; a left row with several matches is repeated once per match. The
// right key column is not repeated in the output. Other right columns must
// not share a name with a left column.
func LeftJoin(left, right *table.Table, leftKey, rightKey string) (*table.Table, error) {
	if err := left.Require(leftKey); err != nil {
		return nil, fmt.Errorf("left side: %w", err)
	}
	if err := right.Require(rightKey); err != nil {
		return nil, fmt.Errorf("right side: %w", err)
	}

	var extra []string
	for _, name := range right.Names() {
		if name == rightKey {
			continue
		}
		if left.Has(name) {
			return nil, &core.SchemaError{Column: name, Reason: "column exists on both sides of the join"}
		}
		extra = append(extra, name)
	}

	index := make(map[string][]int, right.Len())
	for i := 0; i < right.Len(); i++ {
		v := right.Value(i, rightKey)
		if table.IsMissing(v) {
			continue
		}
		k := encodeKey(v)
		index[k] = append(index[k], i)
	}

	var leftRows, rightRows []int
	for i := 0; i < left.Len(); i++ {
		v := left.Value(i, leftKey)
		matches := []int(nil)
		if !table.IsMissing(v) {
			matches = index[encodeKey(v)]
		}
		if len(matches) == 0 {
			leftRows = append(leftRows, i)
			rightRows = append(rightRows, -1)
			continue
		}
		for _, j := range matches {
			leftRows = append(leftRows, i)
			rightRows = append(rightRows, j)
		}
	}

	cols := make([]table.Column, 0, left.Width()+len(extra))
	for _, c := range left.Columns() {
		values := make([]any, len(leftRows))
		for r, i := range leftRows {
			values[r] = c.Values[i]
		}
		cols = append(cols, table.Column{Name: c.Name, Type: c.Type, Values: values})
	}
	for _, name := range extra {
		c, _ := right.Column(name)
		values := make([]any, len(rightRows))
		for r, j := range rightRows {
			if j >= 0 {
				values[r] = c.Values[j]
			}
		}
		cols = append(cols, table.Column{Name: name, Type: c.Type, Values: values})
	}
	return table.New(cols...)
}

// DeriveColumn appends a column computed from each row. fn receives the row
// as a name to value map.
func DeriveColumn(t *table.Table, name string, typ table.Type, fn func(row map[string]any) any) (*table.Table, error) {
	values := make([]any, t.Len())
	for i := range values {
		values[i] = fn(t.RowMap(i))
	}
	return t.WithColumn(table.Column{Name: name, Type: typ, Values: values})
}

// encodeKey renders a join or group key. Integral floats share the integer
// encoding so 3 and 3.0 meet.
func encodeKey(v any) string {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		v = int64(f)
	}
	return fmt.Sprintf("%d:%s", table.TypeOf(v), table.Format(v))
}

func encodeTuple(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = encodeKey(v)
	}
	return strings.Join(parts, "\x1f")
}
