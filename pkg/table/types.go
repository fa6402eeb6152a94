package table

import (
	"fmt"
	"strings"
)

// Type is the logical type of a column. Every type is null-capable: a nil
// value is the missing marker regardless of the column type.
type Type int

// Logical column types.
const (
	// TypeAny marks a column whose values are mixed or could not be inferred.
	TypeAny Type = iota
	TypeString
	TypeInt64
	TypeFloat64
	TypeBool
	// TypeDatetime is a timezone-naive instant, stored as a UTC time.Time.
	TypeDatetime
	// TypeDatetimeTZ is a timezone-aware instant.
	TypeDatetimeTZ
)

// String returns the string representation of a Type.
func (t Type) String() string {
	switch t {
	case TypeAny:
		return "any"
	case TypeString:
		return "string"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeBool:
		return "bool"
	case TypeDatetime:
		return "datetime"
	case TypeDatetimeTZ:
		return "datetime-with-zone"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// IsNumeric reports whether the type is int64 or float64.
func (t Type) IsNumeric() bool {
	return t == TypeInt64 || t == TypeFloat64
}

// IsTemporal reports whether the type is a datetime type.
func (t Type) IsTemporal() bool {
	return t == TypeDatetime || t == TypeDatetimeTZ
}

// TypeFromDatabase maps a driver's database type name onto a logical type.
//
// Examples:
//
//	"BIGINT", "INT4", "INTEGER"     → TypeInt64
//	"DOUBLE", "NUMERIC", "DECIMAL"  → TypeFloat64
//	"TIMESTAMPTZ"                   → TypeDatetimeTZ
//	"DATE", "TIMESTAMP"             → TypeDatetime
//	"VARCHAR", "TEXT"               → TypeString
//	anything else                   → TypeAny (inferred from values)
func TypeFromDatabase(name string) Type {
	s := strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	switch s {
	case "BIGINT", "INT8", "INTEGER", "INT", "INT4", "INT2", "SMALLINT", "TINYINT",
		"HUGEINT", "UBIGINT", "UINTEGER", "USMALLINT", "UTINYINT", "SERIAL", "BIGSERIAL":
		return TypeInt64
	case "DOUBLE", "FLOAT", "FLOAT4", "FLOAT8", "REAL", "NUMERIC", "DECIMAL", "DOUBLE PRECISION":
		return TypeFloat64
	case "BOOL", "BOOLEAN":
		return TypeBool
	case "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE", "TIMESTAMP_TZ":
		return TypeDatetimeTZ
	case "DATE", "TIMESTAMP", "DATETIME", "TIMESTAMP WITHOUT TIME ZONE", "TIMESTAMP_NS", "TIMESTAMP_MS", "TIMESTAMP_S":
		return TypeDatetime
	case "VARCHAR", "TEXT", "CHAR", "BPCHAR", "STRING", "UUID", "NAME":
		return TypeString
	default:
		return TypeAny
	}
}
