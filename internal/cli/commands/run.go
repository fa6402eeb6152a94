package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdq/internal/cli/output"
	"github.com/leapstack-labs/leapdq/internal/expected"
	"github.com/leapstack-labs/leapdq/internal/mapping"
	"github.com/leapstack-labs/leapdq/internal/scenario"
	"github.com/leapstack-labs/leapdq/pkg/adapter"
	"github.com/spf13/cobra"
)

// ErrChecksFailed is returned when a run records a blocking check.
var ErrChecksFailed = errors.New("data quality checks failed")

// RunOptions holds options for the run command.
type RunOptions struct {
	Tiers    []string
	Datasets []string
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reconciliation battery",
		Long: `Run data quality checks over the raw source tables, the normalized
(3NF) tables and the aggregated output datasets.

Failed checks of error severity make the command exit non-zero. Warnings
and skipped checks are reported but do not fail the run.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Run every tier
  leapdq run

  # Only check the output datasets
  leapdq run --tier output

  # Check one dataset, as JSON for CI
  leapdq run --tier output --dataset facility_type_avg_time_spent_per_visit_date -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Tiers, "tier", nil, "Tiers to run (source, normalized, output)")
	cmd.Flags().StringSliceVar(&opts.Datasets, "dataset", nil, "Output datasets to check")

	_ = cmd.RegisterFlagCompletionFunc("tier", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"source", "normalized", "output"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("dataset", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return expected.Keys, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg

	runOpts := scenario.Options{Datasets: opts.Datasets}
	for _, s := range opts.Tiers {
		tier, err := scenario.ParseTier(s)
		if err != nil {
			return err
		}
		runOpts.Tiers = append(runOpts.Tiers, tier)
	}

	m, err := mapping.Load(cfg.MappingPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var summary *scenario.Summary
	err = cmdCtx.withSource(ctx, func(src adapter.Adapter) error {
		return cmdCtx.withFiles(ctx, func(files adapter.FileReader) error {
			runner := scenario.New(scenario.Config{
				Source:      src,
				Files:       files,
				DatasetPath: cfg.Files.DatasetPath,
				Mapping:     m,
				Concurrency: cfg.Concurrency,
				Limit:       cfg.ReportLimit,
				Logger:      cmdCtx.Logger,
			})
			var runErr error
			summary, runErr = runner.Run(ctx, runOpts)
			return runErr
		})
	})
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		err = r.JSON(summary)
	case output.ModeMarkdown:
		err = renderRunMarkdown(r, summary, cfg.ReportLimit)
	default:
		err = renderRunText(r, summary, cfg.ReportLimit)
	}
	if err != nil {
		return err
	}
	if !summary.OK() {
		return ErrChecksFailed
	}
	return nil
}

func checkRows(s *scenario.Summary) [][]string {
	rows := make([][]string, len(s.Checks))
	for i, c := range s.Checks {
		rows[i] = []string{string(c.Tier), c.Dataset, c.Check, c.Severity.String(), string(c.Outcome), firstLine(c.Message())}
	}
	return rows
}

var checkHeader = []string{"Tier", "Dataset", "Check", "Severity", "Outcome", "Message"}

func renderRunText(r *output.Renderer, s *scenario.Summary, limit int) error {
	styles := r.Styles()

	r.Println("")
	r.Header(1, "LeapDQ Reconciliation Report")
	r.Println(styles.Muted.Render(fmt.Sprintf("Run %s, %s", s.RunID, s.Duration.Round(time.Millisecond))))
	r.Println("")

	r.Table(checkHeader, checkRows(s))
	r.Println("")

	for _, c := range s.Checks {
		if c.Outcome != scenario.OutcomeFailed && c.Outcome != scenario.OutcomeError {
			continue
		}
		icon := styles.Error.Render("✗")
		if !c.Blocking() {
			icon = styles.Warning.Render("!")
		}
		r.Printf("%s %s %s\n", icon, styles.Dataset.Render(c.Dataset), c.Check)
		if c.Diff != nil && !c.Diff.Equal {
			if err := c.Diff.Render(r.Writer(), diffFormat(output.ModeText), limit); err != nil {
				return err
			}
		} else {
			r.Println(styles.Muted.Render("    " + c.Message()))
		}
		r.Println("")
	}

	line := fmt.Sprintf("%d passed, %d failed, %d skipped, %d errored", s.Passed, s.Failed, s.Skipped, s.Errored)
	if s.OK() {
		r.Success(line)
	} else {
		r.Println(styles.Error.Render("✗ " + line))
	}
	return nil
}

func renderRunMarkdown(r *output.Renderer, s *scenario.Summary, limit int) error {
	r.Println(output.FormatHeader(1, "LeapDQ Reconciliation Report"))
	r.Println("")
	r.Println(output.FormatKeyValue("Run ID", s.RunID))
	r.Println(output.FormatKeyValue("Duration", s.Duration.Round(time.Millisecond).String()))
	r.Println(output.FormatKeyValue("Passed", fmt.Sprint(s.Passed)))
	r.Println(output.FormatKeyValue("Failed", fmt.Sprint(s.Failed)))
	r.Println(output.FormatKeyValue("Skipped", fmt.Sprint(s.Skipped)))
	r.Println(output.FormatKeyValue("Errored", fmt.Sprint(s.Errored)))
	r.Println("")

	r.Println(output.FormatHeader(2, "Checks"))
	r.Println("")
	r.Table(checkHeader, checkRows(s))

	var findings []scenario.CheckRun
	for _, c := range s.Checks {
		if c.Outcome == scenario.OutcomeFailed || c.Outcome == scenario.OutcomeError {
			findings = append(findings, c)
		}
	}
	if len(findings) == 0 {
		return nil
	}

	r.Println(output.FormatHeader(2, "Findings"))
	r.Println("")
	for _, c := range findings {
		status := "FAIL"
		switch {
		case c.Outcome == scenario.OutcomeError:
			status = "ERROR"
		case !c.Blocking():
			status = "WARN"
		}
		r.Println(output.FormatHeader(3, fmt.Sprintf("[%s] %s: %s", status, c.Dataset, c.Check)))
		r.Println("")
		if c.Diff != nil && !c.Diff.Equal {
			if err := c.Diff.Render(r.Writer(), diffFormat(output.ModeMarkdown), limit); err != nil {
				return err
			}
		} else {
			r.Println(c.Message())
		}
		r.Println("")
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
