package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/vegasq/tablecat/query"
)

// CSVFormatter outputs a table as CSV with a header row.
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes the table as CSV. Null cells become empty fields.
func (c *CSVFormatter) Format(t *query.Table) error {
	csvWriter := csv.NewWriter(c.writer)

	if err := csvWriter.Write(t.Columns()); err != nil {
		return err
	}
	record := make([]string, t.NumColumns())
	for i := 0; i < t.NumRows(); i++ {
		for j := range record {
			record[j] = t.Value(i, j).String()
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}
