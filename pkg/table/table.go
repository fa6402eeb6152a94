// Package table provides the column-oriented table used as the in-memory
// representation of every compared dataset.
//
// A Table is an ordered set of uniquely named columns that all hold the same
// number of values. Values are normalized (see Normalize) and nil is the
// missing marker for every type. Tables are immutable once built: every
// transformation returns a new Table and never writes into the receiver's
// value slices.
package table

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Column is a named, typed sequence of values.
type Column struct {
	Name   string
	Type   Type
	Values []any
}

// Table is an ordered mapping from column name to column.
type Table struct {
	cols  []Column
	index map[string]int
	n     int
}

// New builds a table from columns. Values are normalized and copied, so the
// caller may reuse the given slices. A column with TypeAny gets its type
// inferred from its values. Duplicate names or unequal column lengths
// return a *core.SchemaError.
func New(cols ...Column) (*Table, error) {
	t := &Table{
		cols:  make([]Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if c.Name == "" {
			return nil, &core.SchemaError{Reason: fmt.Sprintf("column #%d has no name", i+1)}
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, &core.SchemaError{Column: c.Name, Reason: "duplicate column name"}
		}
		if i == 0 {
			t.n = len(c.Values)
		} else if len(c.Values) != t.n {
			return nil, &core.SchemaError{
				Column: c.Name,
				Reason: fmt.Sprintf("column has %d values, table has %d rows", len(c.Values), t.n),
			}
		}
		values := make([]any, len(c.Values))
		for j, v := range c.Values {
			values[j] = Normalize(v)
		}
		typ := c.Type
		if typ == TypeAny {
			typ = InferType(values)
		}
		t.index[c.Name] = len(t.cols)
		t.cols = append(t.cols, Column{Name: c.Name, Type: typ, Values: values})
	}
	return t, nil
}

// FromRows builds a table from row-major data. Every row must have exactly
// one value per name.
func FromRows(names []string, rows [][]any) (*Table, error) {
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Values: make([]any, len(rows))}
	}
	for r, row := range rows {
		if len(row) != len(names) {
			return nil, &core.SchemaError{
				Reason: fmt.Sprintf("row %d has %d values, expected %d", r, len(row), len(names)),
			}
		}
		for i, v := range row {
			cols[i].Values[r] = v
		}
	}
	return New(cols...)
}

// wrap builds a table from columns the package already owns (normalized,
// typed, equal length) without copying.
func wrap(cols []Column, n int) *Table {
	t := &Table{cols: cols, index: make(map[string]int, len(cols)), n: n}
	for i, c := range cols {
		t.index[c.Name] = i
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.n }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.cols) }

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t.n == 0 }

// Names returns the column names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column. The returned Values slice is shared with
// the table and must not be modified.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// Columns returns all columns in table order. The value slices are shared
// and must not be modified.
func (t *Table) Columns() []Column {
	return slices.Clone(t.cols)
}

// Values returns the values of the named column, or a *core.SchemaError
// when it does not exist.
func (t *Table) Values(name string) ([]any, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, core.MissingColumn("", name)
	}
	return c.Values, nil
}

// Value returns the value at row for the named column (nil if absent).
func (t *Table) Value(row int, name string) any {
	i, ok := t.index[name]
	if !ok || row < 0 || row >= t.n {
		return nil
	}
	return t.cols[i].Values[row]
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Values[i]
	}
	return row
}

// RowMap returns the values of row i keyed by column name, restricted to
// names when given.
func (t *Table) RowMap(i int, names ...string) map[string]any {
	if len(names) == 0 {
		names = t.Names()
	}
	m := make(map[string]any, len(names))
	for _, name := range names {
		m[name] = t.Value(i, name)
	}
	return m
}

// Schema returns the table's (name, type) pairs.
func (t *Table) Schema() Schema {
	s := make(Schema, len(t.cols))
	for i, c := range t.cols {
		s[i] = Field{Name: c.Name, Type: c.Type}
	}
	return s
}

// Require returns a *core.SchemaError naming the first absent column.
func (t *Table) Require(names ...string) error {
	for _, name := range names {
		if !t.Has(name) {
			return core.MissingColumn("", name)
		}
	}
	return nil
}

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]Column, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, core.MissingColumn("", name)
		}
		if seen[name] {
			return nil, &core.SchemaError{Column: name, Reason: "column selected twice"}
		}
		seen[name] = true
		cols = append(cols, c)
	}
	return wrap(cols, t.n), nil
}

// WithColumn returns a table with col added, or replacing the column of the
// same name in place.
func (t *Table) WithColumn(col Column) (*Table, error) {
	if len(col.Values) != t.n && len(t.cols) > 0 {
		return nil, &core.SchemaError{
			Column: col.Name,
			Reason: fmt.Sprintf("column has %d values, table has %d rows", len(col.Values), t.n),
		}
	}
	built, err := New(col)
	if err != nil {
		return nil, err
	}
	nc, _ := built.Column(col.Name)
	cols := slices.Clone(t.cols)
	if i, ok := t.index[col.Name]; ok {
		cols[i] = nc
	} else {
		cols = append(cols, nc)
	}
	return wrap(cols, len(nc.Values)), nil
}

// Rename returns a table whose columns are renamed per mapping. Names not
// in mapping are kept. A rename that collides with another column returns a
// *core.SchemaError.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	cols := slices.Clone(t.cols)
	seen := make(map[string]bool, len(cols))
	for i := range cols {
		if to, ok := mapping[cols[i].Name]; ok {
			cols[i].Name = to
		}
		if seen[cols[i].Name] {
			return nil, &core.SchemaError{Column: cols[i].Name, Reason: "rename produces duplicate column"}
		}
		seen[cols[i].Name] = true
	}
	return wrap(cols, t.n), nil
}

// Take returns a table holding the given rows, in the given order.
func (t *Table) Take(rows []int) *Table {
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		values := make([]any, len(rows))
		for j, r := range rows {
			values[j] = c.Values[r]
		}
		cols[i] = Column{Name: c.Name, Type: c.Type, Values: values}
	}
	return wrap(cols, len(rows))
}

// Filter returns a table with the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	rows := make([]int, 0, t.n)
	for i := 0; i < t.n; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.Take(rows)
}

// Map returns a table whose named column is replaced by fn applied to every
// value. The column type is re-inferred unless typ is not TypeAny.
func (t *Table) Map(name string, typ Type, fn func(v any) any) (*Table, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, core.MissingColumn("", name)
	}
	values := make([]any, len(c.Values))
	for i, v := range c.Values {
		values[i] = fn(v)
	}
	return t.WithColumn(Column{Name: name, Type: typ, Values: values})
}

// Equal reports whether two tables have the same columns in the same order,
// the same column types and the same values row by row.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.n != o.n || len(t.cols) != len(o.cols) {
		return false
	}
	for i, c := range t.cols {
		oc := o.cols[i]
		if c.Name != oc.Name || c.Type != oc.Type {
			return false
		}
		for r := range c.Values {
			if !Equal(c.Values[r], oc.Values[r]) {
				return false
			}
		}
	}
	return true
}

// String returns a short description of the table's shape.
func (t *Table) String() string {
	return fmt.Sprintf("table(%d rows × %d columns)", t.n, len(t.cols))
}
