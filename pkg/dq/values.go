package dq

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// Range is an inclusive interval. A nil bound leaves that side open.
type Range struct {
	Min any `json:"min,omitempty" yaml:"min,omitempty" mapstructure:"min"`
	Max any `json:"max,omitempty" yaml:"max,omitempty" mapstructure:"max"`
}

func (r Range) String() string {
	lo, hi := "-inf", "+inf"
	if !table.IsMissing(r.Min) {
		lo = table.Format(table.Normalize(r.Min))
	}
	if !table.IsMissing(r.Max) {
		hi = table.Format(table.Normalize(r.Max))
	}
	return "[" + lo + ", " + hi + "]"
}

// ValueInRange fails when a present value of column lies outside r. Missing
// values are not range violations; NoNulls reports them. A bound that cannot
// be ordered against the column's values is a *core.SchemaError.
func ValueInRange(t *table.Table, column string, r Range, opts ...Option) (core.CheckResult, error) {
	o := buildOptions(opts)
	values, err := t.Values(column)
	if err != nil {
		return core.CheckResult{}, err
	}
	lo, hi := table.Normalize(r.Min), table.Normalize(r.Max)

	res := core.Pass(CheckValueInRange)
	res.Columns = []string{column}
	below, above := 0, 0
	for i, v := range values {
		if table.IsMissing(v) {
			continue
		}
		out := false
		if lo != nil {
			c, ok := table.Compare(v, lo)
			if !ok {
				return core.CheckResult{}, boundError(column, v, lo)
			}
			if c < 0 {
				below++
				out = true
			}
		}
		if hi != nil && !out {
			c, ok := table.Compare(v, hi)
			if !ok {
				return core.CheckResult{}, boundError(column, v, hi)
			}
			if c > 0 {
				above++
				out = true
			}
		}
		if !out {
			continue
		}
		if o.full(len(res.Rows)) {
			res.Truncated = true
			continue
		}
		res.Rows = append(res.Rows, core.RowRef{Index: i, Values: map[string]any{column: v}})
		res.Values = append(res.Values, v)
	}
	if below+above > 0 {
		res.Passed = false
		res.Counts = map[string]int{"below_min": below, "above_max": above}
		res.Message = fmt.Sprintf("%d values in column %s outside %s", below+above, column, r)
	}
	return res, nil
}

func boundError(column string, v, bound any) error {
	return &core.SchemaError{
		Column: column,
		Reason: fmt.Sprintf("bound %v (%T) cannot be compared with value %v (%T)", bound, bound, v, v),
	}
}

// ValueInSet fails when a distinct value of column is not in allowed. The
// result carries the set difference, not every row. A missing value is
// allowed only if allowed contains nil.
func ValueInSet(t *table.Table, column string, allowed []any, opts ...Option) (core.CheckResult, error) {
	o := buildOptions(opts)
	values, err := t.Values(column)
	if err != nil {
		return core.CheckResult{}, err
	}
	permitted := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		permitted[string(appendValue(nil, table.Normalize(a)))] = struct{}{}
	}

	invalid := make(map[string]any)
	rows := 0
	for _, v := range values {
		k := string(appendValue(nil, v))
		if _, ok := permitted[k]; ok {
			continue
		}
		rows++
		invalid[k] = v
	}

	res := core.Pass(CheckValueInSet)
	res.Columns = []string{column}
	if len(invalid) == 0 {
		return res, nil
	}
	keys := make([]string, 0, len(invalid))
	for k := range invalid {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if o.full(len(res.Values)) {
			res.Truncated = true
			break
		}
		res.Values = append(res.Values, invalid[k])
	}
	res.Passed = false
	res.Counts = map[string]int{"invalid_values": len(invalid), "rows": rows}
	res.Message = fmt.Sprintf("invalid values in column %s: %v", column, res.Values)
	return res, nil
}
