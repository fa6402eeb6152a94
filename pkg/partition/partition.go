// Package partition checks that a materialized partition column agrees with
// the value derived from its source column.
package partition

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdq/pkg/coerce"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// CheckName is the name carried by partition check results.
const CheckName = "partition"

// Kind names a derivation rule.
type Kind string

// Supported derivation kinds.
const (
	// MonthBucket derives "YYYY-MM" from a datetime source.
	MonthBucket Kind = "month-bucket"
	// UnderscoreNormalize derives the source string with spaces replaced by
	// underscores.
	UnderscoreNormalize Kind = "underscore-normalize"
)

// ParseKind converts a configuration string into a Kind. The short forms
// "month" and "underscore" are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month-bucket", "month":
		return MonthBucket, nil
	case "underscore-normalize", "underscore":
		return UnderscoreNormalize, nil
	default:
		return "", fmt.Errorf("unknown partition kind %q", s)
	}
}

// Derivation describes how the expected partition value is computed.
type Derivation struct {
	Kind         Kind   `json:"kind" yaml:"kind" mapstructure:"kind"`
	SourceColumn string `json:"source_column" yaml:"source_column" mapstructure:"source_column"`
}

// Rule binds a partition column to its derivation.
type Rule struct {
	Column     string     `json:"column" yaml:"column" mapstructure:"column"`
	Derivation Derivation `json:"derivation" yaml:"derivation" mapstructure:"derivation"`
}

// Derive returns the expected partition string for one source value.
// A missing source value derives "".
func (d Derivation) Derive(v any) (string, error) {
	if table.IsMissing(v) {
		return "", nil
	}
	switch d.Kind {
	case MonthBucket:
		ts, ok := asTime(v)
		if !ok {
			// unparseable sources never match a materialized month
			return "<invalid datetime " + table.Format(v) + ">", nil
		}
		return ts.Format("2006-01"), nil
	case UnderscoreNormalize:
		return strings.ReplaceAll(table.Format(v), " ", "_"), nil
	default:
		return "", fmt.Errorf("unknown partition kind %q", d.Kind)
	}
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case string:
		return coerce.ParseDatetime(x)
	case int64:
		return coerce.FromEpoch(x), true
	}
	return time.Time{}, false
}

// materialized returns the string form of a stored partition value. Stored
// datetimes (a month persisted as its first instant) render as "YYYY-MM"
// under the month rule.
func materialized(kind Kind, v any) string {
	if ts, ok := v.(time.Time); ok && kind == MonthBucket {
		return ts.UTC().Format("2006-01")
	}
	return table.Format(v)
}

type options struct {
	limit int
}

// Option configures Validate.
type Option func(*options)

// WithLimit caps the number of offending rows named in the result. Zero or
// a negative limit names every row.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// Validate compares every row's partition column against the value derived
// from the rule's source column. A missing partition or source column is a
// *core.SchemaError; mismatching rows are a failed result. A row whose
// partition value is missing never matches, even when its source is missing
// too.
func Validate(t *table.Table, rule Rule, opts ...Option) (core.CheckResult, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if t == nil {
		return core.CheckResult{}, &core.SchemaError{Reason: "nil table"}
	}
	if !t.Has(rule.Column) {
		return core.CheckResult{}, &core.SchemaError{Column: rule.Column, Reason: "partition column not found"}
	}
	if !t.Has(rule.Derivation.SourceColumn) {
		return core.CheckResult{}, &core.SchemaError{Column: rule.Derivation.SourceColumn, Reason: "partition source column not found"}
	}

	res := core.Pass(CheckName)
	res.Columns = []string{rule.Column}
	mismatches := 0
	for r := 0; r < t.Len(); r++ {
		want, err := rule.Derivation.Derive(t.Value(r, rule.Derivation.SourceColumn))
		if err != nil {
			return core.CheckResult{}, err
		}
		stored := t.Value(r, rule.Column)
		got := materialized(rule.Derivation.Kind, stored)
		if got == want && !table.IsMissing(stored) {
			continue
		}
		mismatches++
		if o.limit > 0 && len(res.Rows) >= o.limit {
			res.Truncated = true
			continue
		}
		res.Rows = append(res.Rows, core.RowRef{
			Index: r,
			Values: map[string]any{
				rule.Derivation.SourceColumn: t.Value(r, rule.Derivation.SourceColumn),
				rule.Column:                  stored,
				"expected":                   want,
			},
		})
	}
	if mismatches > 0 {
		res.Passed = false
		res.Message = fmt.Sprintf("%d of %d rows have %s not matching %s(%s)",
			mismatches, t.Len(), rule.Column, rule.Derivation.Kind, rule.Derivation.SourceColumn)
		res.Counts = map[string]int{"mismatched": mismatches}
	}
	return res, nil
}
