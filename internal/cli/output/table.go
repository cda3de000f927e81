package output

import (
	"io"
	"text/tabwriter"
)

// Table holds tabular data built explicitly by commands.
type Table struct {
	Headers []string
	Rows    [][]string
}

// SetHeaders sets the table headers.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render writes the table in aligned columns.
func (t *Table) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(t.Headers) > 0 {
		writeRow(tw, t.Headers)
	}
	for _, row := range t.Rows {
		writeRow(tw, row)
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			io.WriteString(w, "\t")
		}
		io.WriteString(w, cell)
	}
	io.WriteString(w, "\n")
}

// TableFormatter renders *Table values as aligned text and falls back to
// JSON for everything else.
type TableFormatter struct{}

func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch t := data.(type) {
	case *Table:
		return t.Render(w)
	case Table:
		return t.Render(w)
	default:
		return (&JSONFormatter{}).Format(w, data)
	}
}
