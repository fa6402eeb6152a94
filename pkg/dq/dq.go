// Package dq is the data quality check library.
//
// Every check is a pure function over one or two tables that returns a
// core.CheckResult. A failed check is a result with Passed set to false and
// a diagnostic payload; the error return is reserved for malformed requests
// such as an unknown column or a bound that cannot be compared with the
// column's values. This lets a caller run a whole battery and collect every
// finding instead of stopping at the first.
package dq

// Check names as they appear in results.
const (
	CheckNotEmpty              = "not_empty"
	CheckNoNulls               = "no_nulls"
	CheckNoDuplicates          = "no_duplicates"
	CheckRowCountMatches       = "row_count_matches"
	CheckValueInRange          = "value_in_range"
	CheckValueInSet            = "value_in_set"
	CheckColumnsPresent        = "columns_present"
	CheckMappingColumnsPresent = "mapping_columns_present"
	CheckMappedValuesEqual     = "mapped_values_equal"
	CheckKeysContained         = "keys_contained"
	CheckDatasetsEqual         = "datasets_equal"
)

type options struct {
	limit int
}

// Option configures a check.
type Option func(*options)

// WithLimit caps the number of offending rows or values a result carries.
// Counts always cover every offender. Zero or a negative limit keeps all.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// full reports whether a payload of length n has reached the limit.
func (o options) full(n int) bool {
	return o.limit > 0 && n >= o.limit
}
