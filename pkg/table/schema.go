package table

import (
	"slices"
	"sort"
)

// Field is one (column name, logical type) pair.
type Field struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Schema is the set of fields of a table. Its identity is order-independent.
type Schema []Field

// Names returns the field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Has reports whether the schema contains a field named name.
func (s Schema) Has(name string) bool {
	return slices.ContainsFunc(s, func(f Field) bool { return f.Name == name })
}

// Missing returns the expected names absent from the schema, sorted.
func (s Schema) Missing(expected []string) []string {
	var missing []string
	seen := make(map[string]bool, len(expected))
	for _, name := range expected {
		if seen[name] {
			continue
		}
		seen[name] = true
		if !s.Has(name) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Equal reports whether both schemas hold the same fields, ignoring order.
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	a, b := slices.Clone(s), slices.Clone(o)
	byName := func(x, y Field) int {
		switch {
		case x.Name < y.Name:
			return -1
		case x.Name > y.Name:
			return 1
		}
		return 0
	}
	slices.SortFunc(a, byName)
	slices.SortFunc(b, byName)
	return slices.Equal(a, b)
}
