package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapdq/pkg/adapter"
	"github.com/leapstack-labs/leapdq/pkg/coerce"
	"github.com/leapstack-labs/leapdq/pkg/diff"
	"github.com/spf13/cobra"
)

// ErrDatasetsDiffer is returned when two compared datasets are not equal.
var ErrDatasetsDiffer = errors.New("datasets differ")

// DiffOptions holds options for the diff command.
type DiffOptions struct {
	Coerce map[string]string
}

// NewDiffCommand creates the diff command.
func NewDiffCommand() *cobra.Command {
	opts := &DiffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <expected> <actual>",
		Short: "Compare two datasets cell by cell",
		Long: `Compare two parquet or csv datasets regardless of row order.

Both datasets are coerced with --coerce before comparison. Column order,
row order, surrounding whitespace and time zones do not count as
differences. The command exits non-zero when the datasets differ.`,
		Example: `  # Compare a pipeline output with a reference extract
  leapdq diff expected.csv out/facility_type_avg_time_spent_per_visit_date

  # Parse dates and numbers before comparing
  leapdq diff expected.csv actual.parquet --coerce visit_date=datetime,avg_time_spent=float`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringToStringVar(&opts.Coerce, "coerce", nil, "Column coercions as column=type (datetime, float, int, string, bool)")

	return cmd
}

func runDiff(cmd *cobra.Command, expectedPath, actualPath string, opts *DiffOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	spec, err := coerce.ParseSpec(opts.Coerce)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var report *diff.Report
	err = cmdCtx.withFiles(ctx, func(files adapter.FileReader) error {
		exp, err := files.ReadFile(ctx, expectedPath)
		if err != nil {
			return err
		}
		act, err := files.ReadFile(ctx, actualPath)
		if err != nil {
			return err
		}
		if exp, err = coerce.Apply(exp, spec); err != nil {
			return fmt.Errorf("expected: %w", err)
		}
		if act, err = coerce.Apply(act, spec); err != nil {
			return fmt.Errorf("actual: %w", err)
		}
		report, err = diff.Diff(exp, act)
		return err
	})
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if err := report.Render(r.Writer(), diffFormat(r.EffectiveMode()), cmdCtx.Cfg.ReportLimit); err != nil {
		return err
	}
	if !report.Equal {
		return ErrDatasetsDiffer
	}
	return nil
}
