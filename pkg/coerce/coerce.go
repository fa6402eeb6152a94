// Package coerce normalizes column representations so that two
// independently produced tables can be compared value by value.
//
// Coercion never fails on bad data: a value that cannot be converted becomes
// the missing marker and is recorded as a *core.CoercionError in the Result,
// so a later null check reports it as a quality finding.
//
// Datetime policy: every parsed instant is converted to UTC and stored as a
// naive datetime. Timezone-aware inputs therefore compare equal to naive
// inputs that already express the same instant in UTC.
package coerce

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// Target is the logical type a column is coerced to.
type Target string

// Supported coercion targets.
const (
	TargetDatetime Target = "datetime"
	TargetFloat    Target = "float"
	TargetInt      Target = "int"
	TargetString   Target = "string"
	TargetBool     Target = "bool"
)

// ErrUnknownTarget is returned for a Spec naming an unsupported target.
var ErrUnknownTarget = errors.New("unknown coercion target")

// ParseTarget converts a configuration string into a Target. Common type
// spellings ("datetime64", "float64", "int64", "str", ...) are accepted.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "datetime", "datetime64", "timestamp", "date":
		return TargetDatetime, nil
	case "float", "float64", "double", "numeric":
		return TargetFloat, nil
	case "int", "int64", "integer":
		return TargetInt, nil
	case "string", "str", "text":
		return TargetString, nil
	case "bool", "boolean":
		return TargetBool, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTarget, s)
	}
}

// Type returns the column type a coerced column carries.
func (t Target) Type() table.Type {
	switch t {
	case TargetDatetime:
		return table.TypeDatetime
	case TargetFloat:
		return table.TypeFloat64
	case TargetInt:
		return table.TypeInt64
	case TargetString:
		return table.TypeString
	case TargetBool:
		return table.TypeBool
	default:
		return table.TypeAny
	}
}

// Spec maps column names to their coercion target. Columns not named pass
// through unchanged.
type Spec map[string]Target

// ParseSpec builds a Spec from string targets, as found in configuration.
func ParseSpec(raw map[string]string) (Spec, error) {
	spec := make(Spec, len(raw))
	for col, s := range raw {
		target, err := ParseTarget(s)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		spec[col] = target
	}
	return spec, nil
}

// Columns returns the spec's column names, sorted.
func (s Spec) Columns() []string {
	cols := make([]string, 0, len(s))
	for c := range s {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Result is the outcome of Coerce.
type Result struct {
	Table *table.Table
	// Failures lists every value that could not be converted, in column
	// then row order. Each of them is missing in Table.
	Failures []*core.CoercionError
}

// Coerce applies spec to t and returns a new table. Columns named in spec
// but absent from t are skipped. The input table is not modified.
func Coerce(t *table.Table, spec Spec) (*Result, error) {
	if t == nil {
		return nil, &core.SchemaError{Reason: "nil table"}
	}
	out := t
	var failures []*core.CoercionError
	for _, name := range spec.Columns() {
		target := spec[name]
		conv, err := converter(target)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		col, ok := out.Column(name)
		if !ok {
			continue
		}
		values := make([]any, len(col.Values))
		for i, v := range col.Values {
			if table.IsMissing(v) {
				continue
			}
			if s, isStr := v.(string); isStr && target != TargetString && strings.TrimSpace(s) == "" {
				continue
			}
			cv, ok := conv(v)
			if !ok {
				failures = append(failures, &core.CoercionError{
					Column: name,
					Row:    i,
					Value:  v,
					Target: string(target),
				})
				continue
			}
			values[i] = cv
		}
		out, err = out.WithColumn(table.Column{Name: name, Type: target.Type(), Values: values})
		if err != nil {
			return nil, fmt.Errorf("failed to replace column %q: %w", name, err)
		}
	}
	return &Result{Table: out, Failures: failures}, nil
}

// Apply is Coerce for callers that only need the table.
func Apply(t *table.Table, spec Spec) (*table.Table, error) {
	res, err := Coerce(t, spec)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

type convertFunc func(v any) (any, bool)

func converter(t Target) (convertFunc, error) {
	switch t {
	case TargetDatetime:
		return toDatetime, nil
	case TargetFloat:
		return toFloat, nil
	case TargetInt:
		return toInt, nil
	case TargetString:
		return toString, nil
	case TargetBool:
		return toBool, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, string(t))
	}
}

func toFloat(v any) (any, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, false
		}
		return table.Normalize(f), true
	}
	return nil, false
}

func toInt(v any) (any, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		return integral(x)
	case bool:
		if x {
			return int64(1), true
		}
		return int64(0), true
	case string:
		s := strings.TrimSpace(x)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return integral(f)
	}
	return nil, false
}

// integral accepts floats without a fractional part; 3.5 is not an int.
func integral(f float64) (any, bool) {
	if math.IsNaN(f) || f < -9.2e18 || f > 9.2e18 {
		return nil, false
	}
	i := int64(f)
	if float64(i) != f {
		return nil, false
	}
	return i, true
}

func toString(v any) (any, bool) {
	if t, ok := v.(time.Time); ok {
		return table.Format(t.UTC()), true
	}
	return strings.TrimSpace(table.Format(v)), true
}

func toBool(v any) (any, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case int64:
		switch x {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "t", "yes", "y", "1":
			return true, true
		case "false", "f", "no", "n", "0":
			return false, true
		}
	}
	return nil, false
}
