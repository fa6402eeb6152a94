package core

import (
	"fmt"
	"strings"
)

// RowRef identifies an offending row by its position in the checked table,
// together with the values that made it offend.
type RowRef struct {
	Index  int            `json:"index"`
	Values map[string]any `json:"values,omitempty"`
}

// CheckResult is the outcome of one data quality check. A failed check is a
// normal result, not an error: Passed is false and the diagnostic fields say
// what offended.
type CheckResult struct {
	// Check is the check's name, e.g. "no_nulls".
	Check string `json:"check"`
	// Passed is true when no violation was found.
	Passed bool `json:"passed"`
	// Message summarises the outcome for humans.
	Message string `json:"message,omitempty"`
	// Columns lists offending columns.
	Columns []string `json:"columns,omitempty"`
	// Rows lists offending rows.
	Rows []RowRef `json:"rows,omitempty"`
	// Values lists offending distinct values.
	Values []any `json:"values,omitempty"`
	// Counts carries named counters (per-column null counts, both sides of a
	// row count comparison, ...).
	Counts map[string]int `json:"counts,omitempty"`
	// Truncated is true when Rows or Values were capped by a reporting limit.
	Truncated bool `json:"truncated,omitempty"`
}

// Pass returns a passing result for the named check.
func Pass(check string) CheckResult {
	return CheckResult{Check: check, Passed: true}
}

// Fail returns a failing result for the named check with a formatted message.
func Fail(check, format string, args ...any) CheckResult {
	return CheckResult{Check: check, Passed: false, Message: fmt.Sprintf(format, args...)}
}

// String renders the result on one line.
func (r CheckResult) String() string {
	status := "PASS"
	if !r.Passed {
		status = "FAIL"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", status, r.Check)
	if r.Message != "" {
		fmt.Fprintf(&b, ": %s", r.Message)
	}
	return b.String()
}
