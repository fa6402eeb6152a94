package scenario

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdq/internal/expected"
	"github.com/leapstack-labs/leapdq/pkg/coerce"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/diff"
	"github.com/leapstack-labs/leapdq/pkg/dq"
	"github.com/leapstack-labs/leapdq/pkg/partition"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// outputChecks names the checks of an output battery, in evaluation order.
var outputChecks = []string{
	dq.CheckNotEmpty,
	dq.CheckNoNulls,
	dq.CheckNoDuplicates,
	dq.CheckValueInSet,
	dq.CheckValueInRange,
	partition.CheckName,
	dq.CheckRowCountMatches,
	dq.CheckDatasetsEqual,
	dq.CheckColumnsPresent,
	dq.CheckMappedValuesEqual,
}

// outputBattery checks one output dataset against its expectation.
func (r *Runner) outputBattery(ctx context.Context, out expected.Output) []CheckRun {
	path := r.datasetPath(out.Key)
	actual, err := r.files.ReadFile(ctx, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Info("output dataset not found, skipping", "dataset", out.Key, "path", path)
		runs := make([]CheckRun, len(outputChecks))
		for i, name := range outputChecks {
			runs[i] = skippedRun(TierOutput, out.Key, name, severityOf(name), "dataset not found: "+path)
		}
		return runs
	case err != nil:
		return []CheckRun{errorRun(TierOutput, out.Key, "read", core.SeverityError, err)}
	}
	r.logger.Debug("output dataset loaded", "dataset", out.Key, "rows", actual.Len())

	limit := dq.WithLimit(r.limit)
	run := func(name string, fn func() (core.CheckResult, error)) CheckRun {
		return r.check(TierOutput, out.Key, name, severityOf(name), fn)
	}

	runs := []CheckRun{
		run(dq.CheckNotEmpty, func() (core.CheckResult, error) {
			return dq.NotEmpty(actual), nil
		}),
		run(dq.CheckNoNulls, func() (core.CheckResult, error) {
			return dq.NoNulls(actual, out.NotNull, limit)
		}),
		run(dq.CheckNoDuplicates, func() (core.CheckResult, error) {
			return dq.NoDuplicates(actual, out.Keys, limit)
		}),
	}

	cols := make([]string, 0, len(out.AllowedValues))
	for col := range out.AllowedValues {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		runs = append(runs, run(dq.CheckValueInSet, func() (core.CheckResult, error) {
			return dq.ValueInSet(actual, col, out.AllowedValues[col], limit)
		}))
	}

	coerced, coerceErr := coerce.Coerce(actual, out.Coerce)
	if coerceErr == nil && len(coerced.Failures) > 0 {
		r.logger.Warn("output values could not be coerced",
			"dataset", out.Key, "count", len(coerced.Failures), "first", coerced.Failures[0].Error())
	}
	for _, rc := range out.RangeChecks {
		runs = append(runs, run(dq.CheckValueInRange, func() (core.CheckResult, error) {
			if coerceErr != nil {
				return core.CheckResult{}, coerceErr
			}
			return dq.ValueInRange(coerced.Table, rc.Column, rc.Range, limit)
		}))
	}

	if out.Partition.Column != "" {
		runs = append(runs, run(partition.CheckName, func() (core.CheckResult, error) {
			return partition.Validate(actual, out.Partition, partition.WithLimit(r.limit))
		}))
	}

	runs = append(runs, run(dq.CheckRowCountMatches, func() (core.CheckResult, error) {
		return dq.RowCountMatches(actual, out.Expected), nil
	}))
	runs = append(runs, r.accuracy(out, actual))
	runs = append(runs, r.mappingChecks(out, actual)...)
	return runs
}

// accuracy coerces both sides, drops the actual columns the expectation does
// not carry and compares the datasets cell by cell. Expected columns absent
// from actual are left for the diff to report.
func (r *Runner) accuracy(out expected.Output, actual *table.Table) CheckRun {
	var d *diff.Report
	run := r.check(TierOutput, out.Key, dq.CheckDatasetsEqual, core.SeverityError, func() (core.CheckResult, error) {
		exp, err := coerce.Apply(out.Expected, out.Coerce)
		if err != nil {
			return core.CheckResult{}, err
		}
		act, err := coerce.Apply(actual, out.Coerce)
		if err != nil {
			return core.CheckResult{}, err
		}
		act, err = act.Select(sharedColumns(exp, act)...)
		if err != nil {
			return core.CheckResult{}, fmt.Errorf("actual dataset: %w", err)
		}
		var res core.CheckResult
		res, d, err = dq.DatasetsEqual(exp, act, dq.WithLimit(r.limit))
		return res, err
	})
	run.Diff = d
	return run
}

// mappingChecks compares the dataset's schema with the mapping targets and,
// for verbatim rules, its values with the expected values they are copied
// from.
func (r *Runner) mappingChecks(out expected.Output, actual *table.Table) []CheckRun {
	var rules []dq.MappingRule
	if r.mapping != nil {
		rules = r.mapping.Rules(out.Key)
	}
	if len(rules) == 0 {
		return []CheckRun{
			skippedRun(TierOutput, out.Key, dq.CheckColumnsPresent, severityOf(dq.CheckColumnsPresent), "no mapping definition for dataset"),
			skippedRun(TierOutput, out.Key, dq.CheckMappedValuesEqual, severityOf(dq.CheckMappedValuesEqual), "no mapping definition for dataset"),
		}
	}

	runs := []CheckRun{
		r.check(TierOutput, out.Key, dq.CheckColumnsPresent, severityOf(dq.CheckColumnsPresent), func() (core.CheckResult, error) {
			return dq.ColumnsPresent(actual.Schema(), dq.TargetColumns(rules)), nil
		}),
	}

	var verbatim []dq.MappingRule
	for _, rule := range rules {
		if rule.Verbatim() && out.Expected.Has(rule.SourceColumn) {
			verbatim = append(verbatim, rule)
		}
	}
	if len(verbatim) == 0 {
		return append(runs, skippedRun(TierOutput, out.Key, dq.CheckMappedValuesEqual,
			severityOf(dq.CheckMappedValuesEqual), "no verbatim mapping rules"))
	}
	return append(runs, r.check(TierOutput, out.Key, dq.CheckMappedValuesEqual, severityOf(dq.CheckMappedValuesEqual),
		func() (core.CheckResult, error) {
			exp, err := coerce.Apply(out.Expected, out.Coerce)
			if err != nil {
				return core.CheckResult{}, err
			}
			act, err := coerce.Apply(actual, out.Coerce)
			if err != nil {
				return core.CheckResult{}, err
			}
			a := dq.Alignment{SourceKeys: out.Keys, TargetKeys: out.Keys}
			exp, act, err = dq.Align(exp, act, a)
			if err != nil {
				return core.CheckResult{}, err
			}
			return dq.MappedValuesEqual(exp, act, verbatim, a, dq.WithLimit(r.limit))
		}))
}

// severityOf returns the severity a check carries in the output battery.
// Schema drift against the mapping is reported without failing the run.
func severityOf(check string) core.Severity {
	if check == dq.CheckColumnsPresent {
		return core.SeverityWarning
	}
	return core.SeverityError
}

// sharedColumns lists the columns of act that exp also has, in act order.
// Names match after trimming, as the differ compares them.
func sharedColumns(exp, act *table.Table) []string {
	want := make(map[string]bool, exp.Width())
	for _, name := range exp.Names() {
		want[strings.TrimSpace(name)] = true
	}
	var shared []string
	for _, name := range act.Names() {
		if want[strings.TrimSpace(name)] {
			shared = append(shared, name)
		}
	}
	return shared
}
