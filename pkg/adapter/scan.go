package adapter

import (
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/leapdq/pkg/table"
)

// ValueConverter maps a driver value of a column with the given database
// type name to a value table.Normalize understands. It returns the value
// unchanged when it has nothing to do.
type ValueConverter func(dbType string, v any) any

// ScanTable reads every remaining row of rows into a table. Column types
// are inferred from the values; a column with no present values takes the
// type its database type name maps to. The caller closes rows.
func ScanTable(rows *sql.Rows, convert ValueConverter) (*table.Table, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	dbTypes := make([]string, len(names))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			dbTypes[i] = ct.DatabaseTypeName()
		}
	}

	values := make([][]any, len(names))
	dest := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range dest {
			if convert != nil && v != nil {
				v = convert(dbTypes[i], v)
			}
			values[i] = append(values[i], table.Normalize(v))
			dest[i] = nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	cols := make([]table.Column, len(names))
	for i, name := range names {
		if values[i] == nil {
			values[i] = []any{}
		}
		typ := table.InferType(values[i])
		if typ == table.TypeAny && allMissing(values[i]) {
			typ = table.TypeFromDatabase(dbTypes[i])
		}
		cols[i] = table.Column{Name: name, Type: typ, Values: values[i]}
	}
	return table.New(cols...)
}

func allMissing(values []any) bool {
	for _, v := range values {
		if !table.IsMissing(v) {
			return false
		}
	}
	return true
}
