// Package scenario runs the reconciliation battery: data quality checks over
// the raw source tables, the normalized (3NF) tables and the aggregated
// output files, aggregated into one Summary.
package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/diff"
)

// Tier names one layer of the pipeline under test.
type Tier string

// Tiers in pipeline order.
const (
	TierSource     Tier = "source"
	TierNormalized Tier = "normalized"
	TierOutput     Tier = "output"
)

// AllTiers lists every tier in pipeline order.
var AllTiers = []Tier{TierSource, TierNormalized, TierOutput}

// ParseTier converts a string to a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllTiers {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tier %q: must be one of source, normalized, output", s)
}

// Outcome is the result of running one check.
type Outcome string

// Check outcomes.
const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
	// OutcomeError means the check could not be evaluated, e.g. a column it
	// needs is absent.
	OutcomeError Outcome = "error"
)

// CheckRun records one check evaluated against one dataset.
type CheckRun struct {
	Tier     Tier              `json:"tier"`
	Dataset  string            `json:"dataset"`
	Check    string            `json:"check"`
	Severity core.Severity     `json:"severity"`
	Outcome  Outcome           `json:"outcome"`
	Result   *core.CheckResult `json:"result,omitempty"`
	// Diff is set by the transformation accuracy check.
	Diff  *diff.Report `json:"diff,omitempty"`
	Error string       `json:"error,omitempty"`
	// Reason explains a skipped check.
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Blocking reports whether the run fails the battery: an error-severity
// check that failed or could not be evaluated.
func (c CheckRun) Blocking() bool {
	return c.Severity == core.SeverityError && (c.Outcome == OutcomeFailed || c.Outcome == OutcomeError)
}

// Message returns the most specific human-readable explanation available.
func (c CheckRun) Message() string {
	switch {
	case c.Error != "":
		return c.Error
	case c.Reason != "":
		return c.Reason
	case c.Diff != nil && !c.Diff.Equal:
		return c.Diff.Summary()
	case c.Result != nil:
		return c.Result.Message
	}
	return ""
}

// Summary aggregates every check of a run.
type Summary struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Checks   []CheckRun    `json:"checks"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Errored  int           `json:"errored"`
}

// OK reports whether no blocking check was recorded.
func (s *Summary) OK() bool {
	for _, c := range s.Checks {
		if c.Blocking() {
			return false
		}
	}
	return true
}

func (s *Summary) add(runs ...CheckRun) {
	for _, c := range runs {
		switch c.Outcome {
		case OutcomePassed:
			s.Passed++
		case OutcomeFailed:
			s.Failed++
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeError:
			s.Errored++
		}
	}
	s.Checks = append(s.Checks, runs...)
}
