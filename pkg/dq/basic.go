package dq

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
	"github.com/zeebo/xxh3"
)

// NotEmpty fails when t has no rows.
func NotEmpty(t *table.Table) core.CheckResult {
	if t == nil || t.Empty() {
		return core.Fail(CheckNotEmpty, "dataset is empty")
	}
	res := core.Pass(CheckNotEmpty)
	res.Counts = map[string]int{"rows": t.Len()}
	return res
}

// NoNulls fails when any of the named columns (all columns when none are
// named) holds a missing value. The result names every offending column and
// its null count.
func NoNulls(t *table.Table, columns []string, opts ...Option) (core.CheckResult, error) {
	o := buildOptions(opts)
	if len(columns) == 0 {
		columns = t.Names()
	}
	if err := t.Require(columns...); err != nil {
		return core.CheckResult{}, err
	}

	res := core.Pass(CheckNoNulls)
	for _, name := range columns {
		c, _ := t.Column(name)
		nulls := 0
		for r, v := range c.Values {
			if !table.IsMissing(v) {
				continue
			}
			nulls++
			if o.full(len(res.Rows)) {
				res.Truncated = true
				continue
			}
			res.Rows = append(res.Rows, core.RowRef{Index: r, Values: map[string]any{name: nil}})
		}
		if nulls == 0 {
			continue
		}
		if res.Counts == nil {
			res.Counts = make(map[string]int)
		}
		res.Counts[name] = nulls
		res.Columns = append(res.Columns, name)
	}
	if len(res.Columns) > 0 {
		res.Passed = false
		parts := make([]string, len(res.Columns))
		for i, name := range res.Columns {
			parts[i] = fmt.Sprintf("%s (%d nulls)", name, res.Counts[name])
		}
		res.Message = "null values found in column(s): " + strings.Join(parts, ", ")
	}
	return res, nil
}

// NoDuplicates fails when a row, projected onto keys (all columns when none
// are named), repeats an earlier row. Every repeat after the first
// occurrence is reported. Rows are bucketed by an xxh3 hash of their encoded
// key and then compared exactly, so hash collisions cannot produce false
// findings.
func NoDuplicates(t *table.Table, keys []string, opts ...Option) (core.CheckResult, error) {
	o := buildOptions(opts)
	if len(keys) == 0 {
		keys = t.Names()
	}
	cols, err := keyColumns(t, "", keys)
	if err != nil {
		return core.CheckResult{}, err
	}

	// hash -> rows of first occurrences with that hash
	buckets := make(map[uint64][]int, t.Len())
	var buf []byte
	res := core.Pass(CheckNoDuplicates)
	res.Columns = keys
	dups := 0
	for r := 0; r < t.Len(); r++ {
		buf = appendKey(buf[:0], cols, r)
		h := xxh3.Hash(buf)
		first := -1
		for _, candidate := range buckets[h] {
			if sameKey(cols, candidate, r) {
				first = candidate
				break
			}
		}
		if first < 0 {
			buckets[h] = append(buckets[h], r)
			continue
		}
		dups++
		if o.full(len(res.Rows)) {
			res.Truncated = true
			continue
		}
		values := keyValues(keys, cols, r)
		res.Rows = append(res.Rows, core.RowRef{Index: r, Values: values})
	}
	if dups > 0 {
		res.Passed = false
		res.Counts = map[string]int{"duplicates": dups}
		res.Message = formatCount(dups, "duplicate row", "found on "+strings.Join(keys, ", "))
	}
	return res, nil
}

func sameKey(cols [][]any, a, b int) bool {
	for _, c := range cols {
		if !table.Equal(c[a], c[b]) {
			return false
		}
	}
	return true
}

// RowCountMatches fails when a and b have different row counts. Both counts
// are reported under "left" and "right".
func RowCountMatches(a, b *table.Table) core.CheckResult {
	res := core.Pass(CheckRowCountMatches)
	res.Counts = map[string]int{"left": a.Len(), "right": b.Len()}
	if a.Len() != b.Len() {
		res.Passed = false
		res.Message = fmt.Sprintf("row count mismatch: left has %d rows, right has %d rows", a.Len(), b.Len())
	}
	return res
}

func formatCount(n int, noun, rest string) string {
	if n != 1 {
		noun += "s"
	}
	return fmt.Sprintf("%d %s %s", n, noun, rest)
}
