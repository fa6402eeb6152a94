package dq

import (
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/diff"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// DatasetsEqual fails when expected and actual differ after
// canonicalization. Missing and extra columns are reported as
// "missing.<name>" and "extra.<name>"; cell differences as rows holding
// the expected and actual values.
func DatasetsEqual(expected, actual *table.Table, opts ...Option) (core.CheckResult, *diff.Report, error) {
	o := buildOptions(opts)
	report, err := diff.Diff(expected, actual)
	if err != nil {
		return core.CheckResult{}, nil, err
	}
	if report.Equal {
		res := core.Pass(CheckDatasetsEqual)
		res.Counts = map[string]int{"rows": expected.Len(), "columns": len(report.Columns)}
		return res, report, nil
	}

	res := core.Fail(CheckDatasetsEqual, "%s", report.Summary())
	for _, c := range report.MissingColumns {
		res.Columns = append(res.Columns, "missing."+c)
	}
	for _, c := range report.ExtraColumns {
		res.Columns = append(res.Columns, "extra."+c)
	}
	res.Columns = append(res.Columns, report.DiffColumns()...)
	res.Counts = map[string]int{"cell_diffs": len(report.CellDiffs)}
	if m := report.RowCountMismatch; m != nil {
		res.Counts["expected_rows"] = m.Expected
		res.Counts["actual_rows"] = m.Actual
	}
	for _, d := range report.CellDiffs {
		if o.full(len(res.Rows)) {
			res.Truncated = true
			break
		}
		res.Rows = append(res.Rows, core.RowRef{Index: d.Row, Values: map[string]any{
			"column":   d.Column,
			"expected": d.Expected,
			"actual":   d.Actual,
		}})
	}
	return res, report, nil
}
