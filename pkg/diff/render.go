package diff

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
)

// Format selects how a report is rendered.
type Format string

// Supported render formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Render writes the report to w. At most maxCells cell differences are
// listed; zero or a negative value lists all of them.
func (r *Report) Render(w io.Writer, format Format, maxCells int) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	_, _ = fmt.Fprintln(w, r.Summary())
	if len(r.CellDiffs) == 0 {
		return nil
	}

	t := prettytable.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(prettytable.StyleLight)
	t.AppendHeader(prettytable.Row{"Row", "Column", "Expected", "Actual"})

	shown := r.CellDiffs
	if maxCells > 0 && len(shown) > maxCells {
		shown = shown[:maxCells]
	}
	for _, d := range shown {
		t.AppendRow(prettytable.Row{strconv.Itoa(d.Row), d.Column, display(d.Expected), display(d.Actual)})
	}
	if hidden := len(r.CellDiffs) - len(shown); hidden > 0 {
		t.AppendFooter(prettytable.Row{"", fmt.Sprintf("... %d more", hidden), "", ""})
	}

	if format == FormatMarkdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}
	return nil
}
