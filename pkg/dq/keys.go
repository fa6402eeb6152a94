package dq

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

const keySep = '\x1f'

// keyColumns resolves the value slices of the named columns of t.
func keyColumns(t *table.Table, side string, names []string) ([][]any, error) {
	cols := make([][]any, len(names))
	for i, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, core.MissingColumn(side, name)
		}
		cols[i] = c.Values
	}
	return cols, nil
}

// appendKey encodes the row's key so that two rows encode identically
// exactly when their key values are equal under table.Equal.
func appendKey(buf []byte, cols [][]any, row int) []byte {
	for i, c := range cols {
		if i > 0 {
			buf = append(buf, keySep)
		}
		buf = appendValue(buf, c[row])
	}
	return buf
}

func appendValue(buf []byte, v any) []byte {
	switch x := v.(type) {
	case nil:
		return append(buf, 0)
	case int64:
		buf = append(buf, 'n')
		return strconv.AppendInt(buf, x, 10)
	case float64:
		buf = append(buf, 'n')
		if x == math.Trunc(x) && x >= -0x1p63 && x < 0x1p63 {
			// integral floats share the encoding of the int64 they equal
			return strconv.AppendInt(buf, int64(x), 10)
		}
		return append(buf, table.Format(x)...)
	case string:
		buf = append(buf, 's')
		return append(buf, x...)
	case bool:
		if x {
			return append(buf, 'b', '1')
		}
		return append(buf, 'b', '0')
	case time.Time:
		buf = append(buf, 't')
		return x.UTC().AppendFormat(buf, time.RFC3339Nano)
	default:
		buf = append(buf, 'x')
		return append(buf, table.Format(x)...)
	}
}

func keyValues(names []string, cols [][]any, row int) map[string]any {
	m := make(map[string]any, len(names))
	for i, name := range names {
		m[name] = cols[i][row]
	}
	return m
}

func keyTuple(cols [][]any, row int) any {
	if len(cols) == 1 {
		return cols[0][row]
	}
	tuple := make([]any, len(cols))
	for i, c := range cols {
		tuple[i] = c[row]
	}
	return tuple
}

// KeysContained checks that every key tuple of source appears in target.
// sourceKeys and targetKeys are paired positionally, so a source
// "facility_id" can be matched against a target "external_id". Missing
// tuples are reported once each, ordered by their encoded form.
func KeysContained(source *table.Table, sourceKeys []string, target *table.Table, targetKeys []string, opts ...Option) (core.CheckResult, error) {
	o := buildOptions(opts)
	if len(sourceKeys) == 0 || len(sourceKeys) != len(targetKeys) {
		return core.CheckResult{}, &core.SchemaError{
			Reason: "source and target key lists must be non-empty and of equal length",
		}
	}
	srcCols, err := keyColumns(source, "source", sourceKeys)
	if err != nil {
		return core.CheckResult{}, err
	}
	tgtCols, err := keyColumns(target, "target", targetKeys)
	if err != nil {
		return core.CheckResult{}, err
	}

	present := make(map[string]struct{}, target.Len())
	var buf []byte
	for r := 0; r < target.Len(); r++ {
		buf = appendKey(buf[:0], tgtCols, r)
		present[string(buf)] = struct{}{}
	}

	type miss struct {
		key string
		row int
	}
	seen := make(map[string]bool)
	var missing []miss
	for r := 0; r < source.Len(); r++ {
		buf = appendKey(buf[:0], srcCols, r)
		k := string(buf)
		if _, ok := present[k]; ok || seen[k] {
			continue
		}
		seen[k] = true
		missing = append(missing, miss{key: k, row: r})
	}

	res := core.Pass(CheckKeysContained)
	res.Columns = sourceKeys
	if len(missing) == 0 {
		return res, nil
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].key < missing[j].key })
	res.Passed = false
	res.Counts = map[string]int{"missing": len(missing)}
	res.Message = formatCount(len(missing), "source key", "not found in target")
	for _, m := range missing {
		if o.full(len(res.Values)) {
			res.Truncated = true
			break
		}
		res.Values = append(res.Values, keyTuple(srcCols, m.row))
		res.Rows = append(res.Rows, core.RowRef{Index: m.row, Values: keyValues(sourceKeys, srcCols, m.row)})
	}
	return res, nil
}
