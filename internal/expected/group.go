package expected

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// AggFunc names an aggregate function.
type AggFunc string

// Supported aggregate functions.
const (
	AggMin   AggFunc = "min"
	AggMean  AggFunc = "mean"
	AggSum   AggFunc = "sum"
	AggCount AggFunc = "count"
)

// Aggregation computes one output column per group.
type Aggregation struct {
	Func   AggFunc
	Column string
	As     string
	// Decimals rounds a mean half away from zero; negative keeps full
	// precision.
	Decimals int
}

// Min is the smallest non-missing value of column.
func Min(column, as string) Aggregation {
	return Aggregation{Func: AggMin, Column: column, As: as, Decimals: -1}
}

// Mean is the arithmetic mean of the non-missing values of column, rounded
// to decimals places when decimals is not negative.
func Mean(column, as string, decimals int) Aggregation {
	return Aggregation{Func: AggMean, Column: column, As: as, Decimals: decimals}
}

// Sum adds the non-missing values of column. An all-missing group sums to 0.
func Sum(column, as string) Aggregation {
	return Aggregation{Func: AggSum, Column: column, As: as, Decimals: -1}
}

// Count is the number of rows in the group.
func Count(as string) Aggregation {
	return Aggregation{Func: AggCount, As: as, Decimals: -1}
}

// GroupBy groups t by keys and computes aggs per group. Rows with a missing
// key value are dropped. The result has the key columns followed by one
// column per aggregation and is sorted by the keys.
func GroupBy(t *table.Table, keys []string, aggs ...Aggregation) (*table.Table, error) {
	if len(keys) == 0 {
		return nil, &core.SchemaError{Reason: "group by needs at least one key"}
	}
	if err := t.Require(keys...); err != nil {
		return nil, err
	}
	for _, a := range aggs {
		if a.As == "" {
			return nil, &core.SchemaError{Reason: fmt.Sprintf("%s aggregation has no output name", a.Func)}
		}
		if a.Func != AggCount {
			if err := t.Require(a.Column); err != nil {
				return nil, err
			}
		}
	}

	var order []string
	groups := make(map[string][]int)
	for i := 0; i < t.Len(); i++ {
		tuple := make([]any, len(keys))
		skip := false
		for j, k := range keys {
			tuple[j] = t.Value(i, k)
			if table.IsMissing(tuple[j]) {
				skip = true
			}
		}
		if skip {
			continue
		}
		enc := encodeTuple(tuple)
		if _, seen := groups[enc]; !seen {
			order = append(order, enc)
		}
		groups[enc] = append(groups[enc], i)
	}

	cols := make([]table.Column, 0, len(keys)+len(aggs))
	for _, k := range keys {
		src, _ := t.Column(k)
		values := make([]any, len(order))
		for g, enc := range order {
			values[g] = src.Values[groups[enc][0]]
		}
		cols = append(cols, table.Column{Name: k, Type: src.Type, Values: values})
	}
	for _, a := range aggs {
		values := make([]any, len(order))
		for g, enc := range order {
			v, err := aggregate(t, a, groups[enc])
			if err != nil {
				return nil, err
			}
			values[g] = v
		}
		cols = append(cols, table.Column{Name: a.As, Values: values})
	}

	out, err := table.New(cols...)
	if err != nil {
		return nil, err
	}
	return out.SortBy(keys...)
}

func aggregate(t *table.Table, a Aggregation, rows []int) (any, error) {
	if a.Func == AggCount {
		return int64(len(rows)), nil
	}
	col, _ := t.Column(a.Column)

	switch a.Func {
	case AggMin:
		var best any
		for _, i := range rows {
			v := col.Values[i]
			if table.IsMissing(v) {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			c, ok := table.Compare(v, best)
			if !ok {
				return nil, &core.SchemaError{Column: a.Column, Reason: fmt.Sprintf("cannot order %T and %T", v, best)}
			}
			if c < 0 {
				best = v
			}
		}
		return best, nil

	case AggSum, AggMean:
		var isum int64
		var fsum float64
		floats := false
		n := 0
		for _, i := range rows {
			switch v := col.Values[i].(type) {
			case nil:
			case int64:
				isum += v
				fsum += float64(v)
				n++
			case float64:
				fsum += v
				floats = true
				n++
			default:
				return nil, &core.SchemaError{Column: a.Column, Reason: fmt.Sprintf("cannot %s %T values", a.Func, v)}
			}
		}
		if a.Func == AggSum {
			if floats {
				return fsum, nil
			}
			return isum, nil
		}
		if n == 0 {
			return nil, nil
		}
		return Round(fsum/float64(n), a.Decimals), nil
	}
	return nil, fmt.Errorf("unknown aggregate function %q", a.Func)
}

// Round rounds v to decimals places, half away from zero. A negative
// decimals returns v unchanged.
func Round(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
