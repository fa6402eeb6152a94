package rendered

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapdq/pkg/coerce"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// ViewOptions describes how a report presents a dataset.
type ViewOptions struct {
	// Columns are the dataset columns the report shows, in display order.
	// Empty means every column.
	Columns []string
	// Renames maps a dataset column to its report header. Columns without
	// an entry get HumanizeColumn's header.
	Renames map[string]string
	// FilterDate keeps only rows whose date column equals it.
	FilterDate string
	// DateColumn is the column FilterDate applies to. When empty or absent,
	// the first column whose name contains "date" is used.
	DateColumn string
}

// HumanizeColumn turns a snake_case column name into a report header:
// "visit_date" becomes "Visit Date".
func HumanizeColumn(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// ReportView shapes t the way a report displays it: rows filtered by date,
// columns projected and renamed to headers, every value rendered as its
// trimmed string with missing values as "".
func ReportView(t *table.Table, opts ViewOptions) (*table.Table, error) {
	var err error
	if opts.FilterDate != "" {
		if t, err = filterDate(t, opts.FilterDate, opts.DateColumn); err != nil {
			return nil, err
		}
	}

	columns := opts.Columns
	if len(columns) == 0 {
		columns = t.Names()
	}
	cols := make([]table.Column, len(columns))
	for i, name := range columns {
		values, err := t.Values(name)
		if err != nil {
			return nil, core.MissingColumn("dataset", name)
		}
		header, ok := opts.Renames[name]
		if !ok {
			header = HumanizeColumn(name)
		}
		out := make([]any, len(values))
		for j, v := range values {
			out[j] = strings.TrimSpace(table.Format(v))
		}
		cols[i] = table.Column{Name: header, Type: table.TypeString, Values: out}
	}
	return table.New(cols...)
}

func filterDate(t *table.Table, filter, column string) (*table.Table, error) {
	if column == "" || !t.Has(column) {
		column = ""
		for _, name := range t.Names() {
			if strings.Contains(strings.ToLower(name), "date") {
				column = name
				break
			}
		}
		if column == "" {
			return nil, &core.SchemaError{Reason: "a filter date was given but no date-like column exists"}
		}
	}

	c, _ := t.Column(column)
	if c.Type.IsTemporal() {
		day, ok := coerce.ParseDatetime(filter)
		if !ok {
			return nil, fmt.Errorf("invalid filter date %q", filter)
		}
		want := day.Format(time.DateOnly)
		return t.Filter(func(r int) bool {
			ts, ok := c.Values[r].(time.Time)
			return ok && ts.UTC().Format(time.DateOnly) == want
		}), nil
	}
	return t.Filter(func(r int) bool {
		return table.Format(c.Values[r]) == filter
	}), nil
}
