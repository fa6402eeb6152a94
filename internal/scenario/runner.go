package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapdq/internal/expected"
	"github.com/leapstack-labs/leapdq/internal/mapping"
	"github.com/leapstack-labs/leapdq/pkg/adapter"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// Config holds runner configuration.
type Config struct {
	// Source is a connected adapter serving the src_generated_* and 3NF tables.
	Source adapter.Adapter
	// Files loads the output datasets.
	Files adapter.FileReader
	// DatasetPath resolves an output dataset key to its file or directory.
	DatasetPath func(key string) string
	// Mapping is optional; without it the schema-vs-mapping checks are skipped.
	Mapping *mapping.Mapping
	// Concurrency bounds how many output datasets are checked at once.
	Concurrency int
	// Limit caps the offending rows and values each result carries.
	Limit int
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Options select what a run covers.
type Options struct {
	// Tiers to run; empty means all.
	Tiers []Tier
	// Datasets restricts the output tier to these keys; empty means all.
	Datasets []string
}

// Runner evaluates the reconciliation battery.
type Runner struct {
	source      adapter.Adapter
	files       adapter.FileReader
	datasetPath func(string) string
	mapping     *mapping.Mapping
	concurrency int
	limit       int
	logger      *slog.Logger

	mu     sync.Mutex
	tables map[string]loaded
}

type loaded struct {
	t   *table.Table
	err error
}

// New creates a runner.
func New(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		source:      cfg.Source,
		files:       cfg.Files,
		datasetPath: cfg.DatasetPath,
		mapping:     cfg.Mapping,
		concurrency: concurrency,
		limit:       cfg.Limit,
		logger:      logger,
		tables:      make(map[string]loaded),
	}
}

// Run evaluates the selected tiers and returns their summary. Check failures
// and unevaluable checks are recorded in the summary; the error return is
// reserved for invalid options and cancellation.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	tiers := opts.Tiers
	if len(tiers) == 0 {
		tiers = AllTiers
	}
	for _, key := range opts.Datasets {
		if !slices.Contains(expected.Keys, key) {
			return nil, fmt.Errorf("unknown dataset %q: must be one of %v", key, expected.Keys)
		}
	}

	s := &Summary{RunID: uuid.New().String(), Started: time.Now()}
	r.logger.Info("starting run", "run_id", s.RunID, "tiers", tiers)

	for _, tier := range AllTiers {
		if !slices.Contains(tiers, tier) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return s, err
		}
		var runs []CheckRun
		var err error
		switch tier {
		case TierSource:
			runs = r.sourceBattery(ctx)
		case TierNormalized:
			runs = r.normalizedBattery(ctx)
		case TierOutput:
			runs, err = r.outputTier(ctx, opts.Datasets)
		}
		s.add(runs...)
		if err != nil {
			return s, err
		}
		r.logger.Debug("tier finished", "tier", tier, "checks", len(runs))
	}

	s.Duration = time.Since(s.Started)
	r.logger.Info("run completed", "run_id", s.RunID,
		"passed", s.Passed, "failed", s.Failed, "skipped", s.Skipped, "errored", s.Errored,
		"duration", s.Duration)
	return s, nil
}

// outputTier runs one battery per output dataset, at most r.concurrency at
// a time. Results keep the order of expected.Keys.
func (r *Runner) outputTier(ctx context.Context, only []string) ([]CheckRun, error) {
	keys := expected.Keys
	if len(only) > 0 {
		keys = slices.DeleteFunc(slices.Clone(expected.Keys), func(k string) bool {
			return !slices.Contains(only, k)
		})
	}

	outputs, err := r.expectedOutputs(ctx)
	if err != nil {
		runs := make([]CheckRun, len(keys))
		for i, key := range keys {
			runs[i] = errorRun(TierOutput, key, "expected_outputs", core.SeverityError, err)
		}
		return runs, nil
	}

	results := make([][]CheckRun, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, key := range keys {
		out, _ := expected.Lookup(outputs, key)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.outputBattery(gctx, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(results...), nil
}

// expectedOutputs derives the output expectations from the 3NF tables.
func (r *Runner) expectedOutputs(ctx context.Context) ([]expected.Output, error) {
	visits, err := r.load(ctx, tableVisits)
	if err != nil {
		return nil, err
	}
	facilities, err := r.load(ctx, tableFacilities)
	if err != nil {
		return nil, err
	}
	patients, err := r.load(ctx, tablePatients)
	if err != nil {
		return nil, err
	}
	return expected.Outputs(visits, facilities, patients)
}

// load reads a source table once per runner.
func (r *Runner) load(ctx context.Context, name string) (*table.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.tables[name]; ok {
		return l.t, l.err
	}
	if r.source == nil {
		return nil, fmt.Errorf("no source adapter configured for table %s", name)
	}
	t, err := r.source.ReadTable(ctx, name)
	if err != nil {
		err = fmt.Errorf("failed to read %s: %w", name, err)
		r.logger.Warn("source table unavailable", "table", name, "error", err)
	} else {
		r.logger.Debug("source table loaded", "table", name, "rows", t.Len())
	}
	r.tables[name] = loaded{t: t, err: err}
	return t, err
}

// check evaluates fn and classifies its outcome.
func (r *Runner) check(tier Tier, dataset, name string, sev core.Severity, fn func() (core.CheckResult, error)) CheckRun {
	start := time.Now()
	res, err := fn()
	run := CheckRun{
		Tier:     tier,
		Dataset:  dataset,
		Check:    name,
		Severity: sev,
		Duration: time.Since(start),
	}
	switch {
	case err != nil:
		run.Outcome = OutcomeError
		run.Error = err.Error()
	case res.Passed:
		run.Outcome = OutcomePassed
		run.Result = &res
	default:
		run.Outcome = OutcomeFailed
		run.Result = &res
	}
	r.logger.Debug("check evaluated",
		"tier", tier, "dataset", dataset, "check", name, "outcome", run.Outcome)
	return run
}

func errorRun(tier Tier, dataset, name string, sev core.Severity, err error) CheckRun {
	return CheckRun{Tier: tier, Dataset: dataset, Check: name, Severity: sev, Outcome: OutcomeError, Error: err.Error()}
}

func skippedRun(tier Tier, dataset, name string, sev core.Severity, reason string) CheckRun {
	return CheckRun{Tier: tier, Dataset: dataset, Check: name, Severity: sev, Outcome: OutcomeSkipped, Reason: reason}
}
