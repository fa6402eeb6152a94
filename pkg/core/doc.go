// Package core defines the shared language of the LeapDQ system.
//
// This package contains:
//   - Check outcomes (CheckResult, RowRef, Severity)
//   - The error taxonomy (SchemaError, CoercionError)
//   - Adapter configuration and metadata value types
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
