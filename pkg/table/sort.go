package table

import (
	"sort"
)

// SortBy returns the table with rows stably sorted by the given columns, in
// order of precedence. Missing values sort last. When a column's present
// values are not mutually orderable (mixed types), that column is ordered by
// each value's Format string instead; the values themselves are unchanged.
func (t *Table) SortBy(keys ...string) (*Table, error) {
	if err := t.Require(keys...); err != nil {
		return nil, err
	}
	type sortKey struct {
		values   []any
		asString bool
	}
	sk := make([]sortKey, len(keys))
	for i, name := range keys {
		c, _ := t.Column(name)
		k := sortKey{values: c.Values}
		if !mutuallyOrderable(c.Values) {
			k.asString = true
			k.values = make([]any, len(c.Values))
			for r, v := range c.Values {
				if IsMissing(v) {
					continue
				}
				k.values[r] = Format(v)
			}
		}
		sk[i] = k
	}

	order := make([]int, t.n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := order[a], order[b]
		for _, k := range sk {
			c, _ := Compare(k.values[ra], k.values[rb])
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return t.Take(order), nil
}

// IsSortedBy reports whether rows are already in non-decreasing order of the
// given columns, using the same ordering as SortBy.
func (t *Table) IsSortedBy(keys ...string) (bool, error) {
	sorted, err := t.SortBy(keys...)
	if err != nil {
		return false, err
	}
	for _, name := range keys {
		a, _ := t.Column(name)
		b, _ := sorted.Column(name)
		for r := range a.Values {
			if !Equal(a.Values[r], b.Values[r]) {
				return false, nil
			}
		}
	}
	return true, nil
}

func mutuallyOrderable(values []any) bool {
	var first any
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		if first == nil {
			if classOf(v) == classNone {
				return false
			}
			first = v
			continue
		}
		if !Orderable(first, v) {
			return false
		}
	}
	return true
}
