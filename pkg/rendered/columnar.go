package rendered

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/table"
)

// ErrLayout is matched by every error about a cell sequence that cannot be
// split into columns.
var ErrLayout = errors.New("malformed report layout")

// FromColumnMajor rebuilds a table from cells laid out column by column,
// where the last cell of every column is its header. Cells are trimmed. The
// total cell count must be a positive multiple of numColumns.
func FromColumnMajor(cells []string, numColumns int) (*table.Table, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: no cell values found", ErrLayout)
	}
	if numColumns <= 0 {
		return nil, fmt.Errorf("%w: column count must be positive, got %d", ErrLayout, numColumns)
	}
	if len(cells)%numColumns != 0 {
		return nil, fmt.Errorf("%w: %d cell values cannot be split evenly across %d columns",
			ErrLayout, len(cells), numColumns)
	}

	perColumn := len(cells) / numColumns
	cols := make([]table.Column, numColumns)
	for i := range cols {
		chunk := cells[i*perColumn : (i+1)*perColumn]
		values := make([]any, perColumn-1)
		for j, c := range chunk[:perColumn-1] {
			values[j] = strings.TrimSpace(c)
		}
		cols[i] = table.Column{
			Name:   strings.TrimSpace(chunk[perColumn-1]),
			Type:   table.TypeString,
			Values: values,
		}
	}
	t, err := table.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLayout, err)
	}
	return t, nil
}
