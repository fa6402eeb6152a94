// Package mapping loads the declarative mapping document that lists, per
// output dataset, the target columns and how each is derived.
//
// The document is YAML. Datasets live under a top-level "datasets" key or,
// for older documents, at the top level itself:
//
//	datasets:
//	  facility_type_avg_time_spent_per_visit_date:
//	    columns:
//	      - source_column: facility_type
//	        target_column: facility_type
//	        transformation: none
package mapping

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapdq/pkg/dq"
)

// Dataset is the mapping of one output dataset.
type Dataset struct {
	Columns []dq.MappingRule `mapstructure:"columns"`
}

// Mapping holds the mapping of every dataset in the document.
type Mapping struct {
	datasets map[string]Dataset
}

// Load reads the document at path. A missing file yields an empty mapping,
// so every dataset lookup misses.
func Load(path string) (*Mapping, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if errors.Is(err, fs.ErrNotExist) {
		return &Mapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a mapping document.
func Parse(r io.Reader) (*Mapping, error) {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	return FromMap(doc)
}

// FromMap builds a mapping from an already decoded nested map.
func FromMap(doc map[string]any) (*Mapping, error) {
	root := doc
	if nested, ok := doc["datasets"].(map[string]any); ok {
		root = nested
	}

	m := &Mapping{datasets: make(map[string]Dataset, len(root))}
	for key, raw := range root {
		var ds Dataset
		if err := mapstructure.Decode(raw, &ds); err != nil {
			return nil, fmt.Errorf("dataset %s: %w", key, err)
		}
		ds.Columns = withTargets(ds.Columns)
		m.datasets[key] = ds
	}
	return m, nil
}

// withTargets drops rules that do not name a target column.
func withTargets(rules []dq.MappingRule) []dq.MappingRule {
	out := rules[:0:0]
	for _, r := range rules {
		if r.TargetColumn != "" {
			out = append(out, r)
		}
	}
	return out
}

// Dataset returns the mapping for key. ok is false when the document has no
// entry for it or the entry lists no columns.
func (m *Mapping) Dataset(key string) (Dataset, bool) {
	ds, ok := m.datasets[key]
	return ds, ok && len(ds.Columns) > 0
}

// Rules returns the mapping rules of a dataset.
func (m *Mapping) Rules(key string) []dq.MappingRule {
	return m.datasets[key].Columns
}

// TargetColumns returns the target columns of a dataset, sorted.
func (m *Mapping) TargetColumns(key string) []string {
	cols := dq.TargetColumns(m.Rules(key))
	sort.Strings(cols)
	return cols
}

// Keys returns the dataset keys in the document, sorted.
func (m *Mapping) Keys() []string {
	keys := make([]string, 0, len(m.datasets))
	for k := range m.datasets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
