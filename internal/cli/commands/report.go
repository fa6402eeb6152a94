package commands

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/leapdq/pkg/adapter"
	"github.com/leapstack-labs/leapdq/pkg/diff"
	"github.com/leapstack-labs/leapdq/pkg/rendered"
	"github.com/spf13/cobra"
)

// ReportOptions holds options for the report command.
type ReportOptions struct {
	HTML       string
	Dataset    string
	FilterDate string
}

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Check a rendered report against its dataset",
		Long: `Extract the cell values of a rendered HTML report and compare them
with the dataset it presents.

The report's cells are read from elements carrying report.cell_class, laid
out column by column with each column's header last. The dataset is shaped
the way the report displays it: filtered to report.filter_date, projected
onto report.columns and renamed with report.renames.`,
		Example: `  # Use the report settings from leapdq.yaml
  leapdq report

  # Check a specific export for one day
  leapdq report --html out/report.html --date 2024-03-15`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.HTML, "html", "", "Rendered report file (overrides report.html_path)")
	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "Dataset the report presents (overrides report.dataset)")
	cmd.Flags().StringVar(&opts.FilterDate, "date", "", "Only compare rows of this date (overrides report.filter_date)")

	return cmd
}

func runReport(cmd *cobra.Command, opts *ReportOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	rc := cmdCtx.Cfg.Report
	if opts.HTML != "" {
		rc.HTMLPath = opts.HTML
	}
	if opts.Dataset != "" {
		rc.Dataset = opts.Dataset
	}
	if opts.FilterDate != "" {
		rc.FilterDate = opts.FilterDate
	}
	if rc.HTMLPath == "" {
		return fmt.Errorf("no report given: set report.html_path or pass --html")
	}
	if rc.Dataset == "" {
		return fmt.Errorf("no dataset given: set report.dataset or pass --dataset")
	}

	f, err := os.Open(rc.HTMLPath)
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}
	defer func() { _ = f.Close() }()
	cells, err := rendered.ExtractCellText(f, rc.CellClass)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var report *diff.Report
	err = cmdCtx.withFiles(ctx, func(files adapter.FileReader) error {
		ds, err := files.ReadFile(ctx, cmdCtx.Cfg.Files.DatasetPath(rc.Dataset))
		if err != nil {
			return err
		}
		view, err := rendered.ReportView(ds, rendered.ViewOptions{
			Columns:    rc.Columns,
			Renames:    rc.Renames,
			FilterDate: rc.FilterDate,
			DateColumn: rc.DateColumn,
		})
		if err != nil {
			return err
		}
		shown, err := rendered.FromColumnMajor(cells, view.Width())
		if err != nil {
			return err
		}
		cmdCtx.Logger.Debug("report extracted", "cells", len(cells), "rows", shown.Len(), "columns", shown.Width())
		report, err = diff.Diff(shown, view)
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
