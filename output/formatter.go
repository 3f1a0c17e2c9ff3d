package output

import (
	"fmt"
	"io"

	"github.com/vegasq/tablecat/query"
)

// Formatter defines the interface for result formatters.
//
// Implementers must provide Format to render a result table in the target
// format and SetOutput to change the output destination.
type Formatter interface {
	// Format writes the table in the formatter's specific format
	Format(t *query.Table) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// New returns the formatter for a format name: "table", "csv", "json", or
// "jsonl".
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "table":
		return NewTableFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "json":
		return NewJSONFormatter(w), nil
	case "jsonl":
		return NewJSONLFormatter(w), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
