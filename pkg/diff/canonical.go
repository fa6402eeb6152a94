package diff

import (
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// Canonicalize returns t in the canonical form used for comparison:
// column names and string values trimmed, timezone-aware datetimes
// converted to naive UTC, columns sorted by name and rows stably sorted by
// the full tuple of values.
func Canonicalize(t *table.Table) (*table.Table, error) {
	cols := t.Columns()
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		name := strings.TrimSpace(c.Name)
		if seen[name] {
			return nil, &core.SchemaError{Column: name, Reason: "column names collide after trimming whitespace"}
		}
		seen[name] = true
		typ := c.Type
		if typ == table.TypeDatetimeTZ {
			typ = table.TypeDatetime
		}
		cols[i] = table.Column{Name: name, Type: typ, Values: canonicalValues(c.Values)}
	}
	sort.SliceStable(cols, func(a, b int) bool { return cols[a].Name < cols[b].Name })

	out, err := table.New(cols...)
	if err != nil {
		return nil, err
	}
	return out.SortBy(out.Names()...)
}

func canonicalValues(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case string:
			out[i] = strings.TrimSpace(x)
		case time.Time:
			out[i] = x.UTC()
		default:
			out[i] = v
		}
	}
	return out
}
