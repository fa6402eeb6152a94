package core

import (
	"errors"
	"fmt"
)

// ErrSchema is the sentinel matched by every *SchemaError via errors.Is.
var ErrSchema = errors.New("schema error")

// SchemaError reports a violated structural contract: a required column is
// absent, columns disagree on row count, or two inputs that must be aligned
// are not. It indicates a setup bug and is never downgraded to a finding.
type SchemaError struct {
	// Table names the offending input when known (e.g. "source", "actual").
	Table string
	// Column names the offending column when the problem is column-scoped.
	Column string
	// Reason is a human-readable description of the violation.
	Reason string
}

func (e *SchemaError) Error() string {
	msg := "schema error"
	if e.Table != "" {
		msg += " in " + e.Table
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" (column %q)", e.Column)
	}
	return msg + ": " + e.Reason
}

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// MissingColumn builds a SchemaError for a column absent from a table.
func MissingColumn(table, column string) *SchemaError {
	return &SchemaError{Table: table, Column: column, Reason: "column not found"}
}

// CoercionError records a single value that could not be converted to its
// target type. Coercion replaces the value with the missing marker and
// collects the error as data; it is never returned as a call's error.
type CoercionError struct {
	Column string
	Row    int
	Value  any
	Target string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot coerce %v (%T) in column %q row %d to %s", e.Value, e.Value, e.Column, e.Row, e.Target)
}
