package table

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Normalize converts a driver or caller supplied value into one of the
// canonical value representations: nil, string, int64, float64, bool or
// time.Time. NaN becomes nil so that every null representation collapses
// into the single missing marker.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case int16:
		return int64(t)
	case int8:
		return int64(t)
	case uint:
		return int64(t) //nolint:gosec // values beyond int64 are not expected in tabular data
	case uint64:
		return int64(t) //nolint:gosec // see above
	case uint32:
		return int64(t)
	case uint16:
		return int64(t)
	case uint8:
		return int64(t)
	case float64:
		if math.IsNaN(t) {
			return nil
		}
		return t
	case float32:
		if math.IsNaN(float64(t)) {
			return nil
		}
		return float64(t)
	case bool:
		return t
	case time.Time:
		return t
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	case *big.Int:
		if t == nil {
			return nil
		}
		if t.IsInt64() {
			return t.Int64()
		}
		f, _ := new(big.Float).SetInt(t).Float64()
		return f
	case interface{ Float64() float64 }:
		// DECIMAL values from columnar drivers.
		return Normalize(t.Float64())
	case interface{ String() string }:
		return t.String()
	default:
		return v
	}
}

// IsMissing reports whether v is the missing marker (nil or NaN).
func IsMissing(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	}
	return false
}

// TypeOf returns the logical type of a single normalized value.
// Missing values report TypeAny.
func TypeOf(v any) Type {
	switch t := v.(type) {
	case string:
		return TypeString
	case int64:
		return TypeInt64
	case float64:
		return TypeFloat64
	case bool:
		return TypeBool
	case time.Time:
		if t.Location() == time.UTC {
			return TypeDatetime
		}
		return TypeDatetimeTZ
	}
	return TypeAny
}

// InferType infers a column type from its values, ignoring missing values.
// Mixed int64 and float64 infer float64; a mix of naive and aware datetimes
// infers datetime-with-zone; any other mix infers TypeAny.
func InferType(values []any) Type {
	inferred := TypeAny
	seen := false
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		vt := TypeOf(v)
		if !seen {
			inferred, seen = vt, true
			continue
		}
		if vt == inferred {
			continue
		}
		switch {
		case inferred.IsNumeric() && vt.IsNumeric():
			inferred = TypeFloat64
		case inferred.IsTemporal() && vt.IsTemporal():
			inferred = TypeDatetimeTZ
		default:
			return TypeAny
		}
	}
	return inferred
}

// class groups types that are mutually orderable.
type class uint8

const (
	classNone class = iota
	classNumber
	classString
	classBool
	classTime
)

func classOf(v any) class {
	switch v.(type) {
	case int64, float64:
		return classNumber
	case string:
		return classString
	case bool:
		return classBool
	case time.Time:
		return classTime
	}
	return classNone
}

// Orderable reports whether two non-missing values can be ordered against
// each other.
func Orderable(a, b any) bool {
	ca, cb := classOf(a), classOf(b)
	return ca != classNone && ca == cb
}

// Compare orders two values. Missing values sort after every present value.
// ok is false when both values are present but not mutually orderable.
func Compare(a, b any) (cmp int, ok bool) {
	am, bm := IsMissing(a), IsMissing(b)
	switch {
	case am && bm:
		return 0, true
	case am:
		return 1, true
	case bm:
		return -1, true
	}
	if !Orderable(a, b) {
		return 0, false
	}
	switch x := a.(type) {
	case int64:
		if y, isInt := b.(int64); isInt {
			return compareOrdered(x, y), true
		}
		return compareIntFloat(x, b.(float64)), true
	case float64:
		if y, isInt := b.(int64); isInt {
			return -compareIntFloat(y, x), true
		}
		return compareOrdered(x, b.(float64)), true
	case string:
		return strings.Compare(x, b.(string)), true
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	case time.Time:
		return x.Compare(b.(time.Time)), true
	}
	return 0, false
}

// compareIntFloat orders a against b exactly. Converting a to float64 would
// round above 2^53 and make distinct integers equal to the same float.
func compareIntFloat(a int64, b float64) int {
	switch {
	case b >= 0x1p63:
		return -1
	case b < -0x1p63:
		return 1
	}
	whole := math.Trunc(b)
	if c := compareOrdered(a, int64(whole)); c != 0 {
		return c
	}
	return compareOrdered(0, b-whole)
}

func compareOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports typed equality. Two missing values are equal; int64 and
// float64 compare by exact numeric value; datetimes compare as instants. Values of
// different classes are never equal.
func Equal(a, b any) bool {
	am, bm := IsMissing(a), IsMissing(b)
	if am || bm {
		return am && bm
	}
	if !Orderable(a, b) {
		return false
	}
	c, _ := Compare(a, b)
	return c == 0
}

// Format returns the normalized string form of a value: missing values format
// as "", midnight naive datetimes as dates, floats without trailing zeros.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if math.IsNaN(t) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return formatTime(t)
	default:
		return Format(Normalize(v))
	}
}

func formatTime(t time.Time) string {
	if t.Location() == time.UTC {
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly)
		}
		return t.Format("2006-01-02 15:04:05.999999999")
	}
	return t.Format("2006-01-02 15:04:05.999999999-07:00")
}
