package dq

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// TransformationNone marks a mapping whose values are copied verbatim.
const TransformationNone = "none"

// MappingRule maps a source column onto a target column.
type MappingRule struct {
	SourceColumn   string `json:"source_column" yaml:"source_column" mapstructure:"source_column"`
	TargetColumn   string `json:"target_column" yaml:"target_column" mapstructure:"target_column"`
	Transformation string `json:"transformation,omitempty" yaml:"transformation,omitempty" mapstructure:"transformation"`
}

// Verbatim reports whether values are expected to be copied unchanged. An
// empty transformation means "none".
func (r MappingRule) Verbatim() bool {
	t := strings.TrimSpace(strings.ToLower(r.Transformation))
	return t == "" || t == TransformationNone
}

// TargetColumns returns the target column of every rule, in rule order.
func TargetColumns(rules []MappingRule) []string {
	cols := make([]string, len(rules))
	for i, r := range rules {
		cols[i] = r.TargetColumn
	}
	return cols
}

// ColumnsPresent fails when expected names columns absent from schema. The
// missing names are reported sorted.
func ColumnsPresent(schema table.Schema, expected []string) core.CheckResult {
	missing := schema.Missing(expected)
	if len(missing) == 0 {
		return core.Pass(CheckColumnsPresent)
	}
	res := core.Fail(CheckColumnsPresent, "missing columns: %s", strings.Join(missing, ", "))
	res.Columns = missing
	return res
}

// MappingColumnsPresent fails when a rule's source column is absent from
// source or its target column is absent from target. Offending columns are
// reported as "source.<name>" or "target.<name>".
func MappingColumnsPresent(source, target *table.Table, rules []MappingRule) core.CheckResult {
	var missing []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
	}
	for _, r := range rules {
		if !source.Has(r.SourceColumn) {
			add("source." + r.SourceColumn)
		}
		if !target.Has(r.TargetColumn) {
			add("target." + r.TargetColumn)
		}
	}
	if len(missing) == 0 {
		return core.Pass(CheckMappingColumnsPresent)
	}
	res := core.Fail(CheckMappingColumnsPresent, "%d mapped column(s) missing: %s", len(missing), strings.Join(missing, ", "))
	res.Columns = missing
	return res
}

// Alignment names the key columns that order source and target rows.
// SourceKeys and TargetKeys are paired positionally.
type Alignment struct {
	SourceKeys []string
	TargetKeys []string
}

// Align sorts source and target by their alignment keys so that
// MappedValuesEqual can compare them positionally.
func Align(source, target *table.Table, a Alignment) (*table.Table, *table.Table, error) {
	s, err := source.SortBy(a.SourceKeys...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sort source: %w", err)
	}
	t, err := target.SortBy(a.TargetKeys...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sort target: %w", err)
	}
	return s, t, nil
}

// MappedValuesEqual fails when, for a verbatim rule, source[SourceColumn]
// differs from target[TargetColumn] at any row.
//
// Rows are compared positionally. The alignment precondition is enforced
// rather than assumed: both tables must have the same row count, each must
// be sorted by its alignment keys, and the key tuples must agree at every
// position. Any violation is a *core.SchemaError, since comparing misaligned
// rows would only produce false findings. Use Align to establish the order.
func MappedValuesEqual(source, target *table.Table, rules []MappingRule, a Alignment, opts ...Option) (core.CheckResult, error) {
	o := buildOptions(opts)
	if err := checkAlignment(source, target, a); err != nil {
		return core.CheckResult{}, err
	}

	res := core.Pass(CheckMappedValuesEqual)
	for _, rule := range rules {
		if !rule.Verbatim() {
			continue
		}
		src, err := source.Values(rule.SourceColumn)
		if err != nil {
			return core.CheckResult{}, core.MissingColumn("source", rule.SourceColumn)
		}
		tgt, err := target.Values(rule.TargetColumn)
		if err != nil {
			return core.CheckResult{}, core.MissingColumn("target", rule.TargetColumn)
		}
		mismatched := 0
		for r := range src {
			if table.Equal(src[r], tgt[r]) {
				continue
			}
			mismatched++
			if o.full(len(res.Rows)) {
				res.Truncated = true
				continue
			}
			res.Rows = append(res.Rows, core.RowRef{Index: r, Values: map[string]any{
				"source." + rule.SourceColumn: src[r],
				"target." + rule.TargetColumn: tgt[r],
			}})
		}
		if mismatched > 0 {
			if res.Counts == nil {
				res.Counts = make(map[string]int)
			}
			res.Counts[rule.TargetColumn] = mismatched
			res.Columns = append(res.Columns, rule.TargetColumn)
		}
	}
	if len(res.Columns) > 0 {
		res.Passed = false
		res.Message = "values differ in column(s): " + strings.Join(res.Columns, ", ")
	}
	return res, nil
}

func checkAlignment(source, target *table.Table, a Alignment) error {
	if len(a.SourceKeys) == 0 || len(a.SourceKeys) != len(a.TargetKeys) {
		return &core.SchemaError{Reason: "alignment needs the same non-zero number of source and target keys"}
	}
	if source.Len() != target.Len() {
		return &core.SchemaError{
			Reason: fmt.Sprintf("cannot align %d source rows with %d target rows", source.Len(), target.Len()),
		}
	}
	for _, side := range []struct {
		name string
		t    *table.Table
		keys []string
	}{
		{"source", source, a.SourceKeys},
		{"target", target, a.TargetKeys},
	} {
		sorted, err := side.t.IsSortedBy(side.keys...)
		if err != nil {
			var se *core.SchemaError
			if errors.As(err, &se) {
				se.Table = side.name
			}
			return err
		}
		if !sorted {
			return &core.SchemaError{
				Table:  side.name,
				Reason: "rows are not sorted by " + strings.Join(side.keys, ", "),
			}
		}
	}
	srcCols, _ := keyColumns(source, "source", a.SourceKeys)
	tgtCols, _ := keyColumns(target, "target", a.TargetKeys)
	for r := 0; r < source.Len(); r++ {
		for i := range srcCols {
			if !table.Equal(srcCols[i][r], tgtCols[i][r]) {
				return &core.SchemaError{
					Reason: fmt.Sprintf("row %d is misaligned: source %s=%v, target %s=%v",
						r, a.SourceKeys[i], srcCols[i][r], a.TargetKeys[i], tgtCols[i][r]),
				}
			}
		}
	}
	return nil
}
