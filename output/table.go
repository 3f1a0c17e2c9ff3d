package output

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/vegasq/tablecat/query"
)

// TableFormatter renders a table as an ASCII grid for terminals.
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new ASCII table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (t *TableFormatter) SetOutput(w io.Writer) {
	t.writer = w
}

// Format renders the table with a header row. Null cells render empty.
func (t *TableFormatter) Format(result *query.Table) error {
	tw := tablewriter.NewWriter(t.writer)
	tw.SetHeader(result.Columns())
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)

	record := make([]string, result.NumColumns())
	for i := 0; i < result.NumRows(); i++ {
		for j := range record {
			record[j] = result.Value(i, j).String()
		}
		tw.Append(record)
	}
	tw.Render()
	return nil
}
