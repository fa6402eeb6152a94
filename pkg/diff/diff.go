// Package diff compares two tables that are expected to hold the same data
// and explains every difference at cell level.
//
// Both tables are canonicalized first (see Canonicalize), which makes the
// comparison insensitive to physical row order, column order, surrounding
// whitespace and the timezone representation of datetimes. Values are then
// compared with table.Equal: exact equality, no floating point tolerance.
// Callers needing a tolerance round during coercion instead.
package diff

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// RowCounts holds both sides of a row count mismatch.
type RowCounts struct {
	Expected int `json:"expected"`
	Actual   int `json:"actual"`
}

// CellDiff is one mismatching cell. Row is the row index in canonical order.
type CellDiff struct {
	Row      int    `json:"row"`
	Column   string `json:"column"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
}

func (d CellDiff) String() string {
	return fmt.Sprintf("row %d, column %s: expected %s, actual %s",
		d.Row, d.Column, display(d.Expected), display(d.Actual))
}

// Report is the outcome of Diff. It is built fresh for every call.
type Report struct {
	Equal bool `json:"equal"`
	// MissingColumns are in expected but not in actual.
	MissingColumns []string `json:"missing_columns,omitempty"`
	// ExtraColumns are in actual but not in expected.
	ExtraColumns []string `json:"extra_columns,omitempty"`
	// Columns are the shared columns that were compared, sorted.
	Columns []string `json:"columns"`
	// RowCountMismatch is set when the row counts differ; no cell diff is
	// attempted in that case.
	RowCountMismatch *RowCounts `json:"row_count_mismatch,omitempty"`
	CellDiffs        []CellDiff `json:"cell_diffs,omitempty"`
}

// Diff compares expected against actual. Mismatched data is reported, never
// returned as an error; only a nil table is an error.
func Diff(expected, actual *table.Table) (*Report, error) {
	if expected == nil || actual == nil {
		return nil, &core.SchemaError{Reason: "diff needs two tables"}
	}
	exp, err := Canonicalize(expected)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize expected: %w", err)
	}
	act, err := Canonicalize(actual)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize actual: %w", err)
	}

	r := &Report{}
	expSchema, actSchema := exp.Schema(), act.Schema()
	r.MissingColumns = actSchema.Missing(exp.Names())
	r.ExtraColumns = expSchema.Missing(act.Names())
	for _, name := range exp.Names() {
		if act.Has(name) {
			r.Columns = append(r.Columns, name)
		}
	}

	if len(r.MissingColumns) > 0 || len(r.ExtraColumns) > 0 {
		// restricting columns changes the row order, so sort again
		if exp, err = restrict(exp, r.Columns); err != nil {
			return nil, err
		}
		if act, err = restrict(act, r.Columns); err != nil {
			return nil, err
		}
	}

	if exp.Len() != act.Len() {
		r.RowCountMismatch = &RowCounts{Expected: exp.Len(), Actual: act.Len()}
	} else {
		for row := 0; row < exp.Len(); row++ {
			for _, name := range r.Columns {
				e, a := exp.Value(row, name), act.Value(row, name)
				if !table.Equal(e, a) {
					r.CellDiffs = append(r.CellDiffs, CellDiff{Row: row, Column: name, Expected: e, Actual: a})
				}
			}
		}
	}

	r.Equal = len(r.MissingColumns) == 0 && len(r.ExtraColumns) == 0 &&
		r.RowCountMismatch == nil && len(r.CellDiffs) == 0
	return r, nil
}

func restrict(t *table.Table, cols []string) (*table.Table, error) {
	sel, err := t.Select(cols...)
	if err != nil {
		return nil, err
	}
	return sel.SortBy(cols...)
}

// Summary describes the report in one line.
func (r *Report) Summary() string {
	if r.Equal {
		return fmt.Sprintf("datasets are equal (%d columns compared)", len(r.Columns))
	}
	var parts []string
	if len(r.MissingColumns) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(r.MissingColumns, ", "))
	}
	if len(r.ExtraColumns) > 0 {
		parts = append(parts, "extra columns: "+strings.Join(r.ExtraColumns, ", "))
	}
	if r.RowCountMismatch != nil {
		parts = append(parts, fmt.Sprintf("row count mismatch: expected %d, actual %d",
			r.RowCountMismatch.Expected, r.RowCountMismatch.Actual))
	}
	if n := len(r.CellDiffs); n > 0 {
		parts = append(parts, fmt.Sprintf("%d cell difference(s)", n))
	}
	return "datasets differ: " + strings.Join(parts, "; ")
}

// DiffColumns returns the distinct columns having cell differences, in
// report order.
func (r *Report) DiffColumns() []string {
	var cols []string
	seen := make(map[string]bool)
	for _, d := range r.CellDiffs {
		if !seen[d.Column] {
			seen[d.Column] = true
			cols = append(cols, d.Column)
		}
	}
	return cols
}

func display(v any) string {
	if table.IsMissing(v) {
		return "NULL"
	}
	return table.Format(v)
}
