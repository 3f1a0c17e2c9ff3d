package output

import (
	"encoding/json"
	"io"

	"github.com/vegasq/tablecat/query"
)

// JSONFormatter outputs a table as one JSON array of objects.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON array formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes all rows as a single JSON array
func (j *JSONFormatter) Format(t *query.Table) error {
	rows := make([]map[string]interface{}, t.NumRows())
	for i := range rows {
		rows[i] = rowObject(t, i)
	}
	return json.NewEncoder(j.writer).Encode(rows)
}

// JSONLFormatter outputs a table as JSON Lines format.
type JSONLFormatter struct {
	writer io.Writer
}

// NewJSONLFormatter creates a new JSON Lines formatter
func NewJSONLFormatter(w io.Writer) *JSONLFormatter {
	return &JSONLFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONLFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes rows as JSON Lines (one JSON object per line)
func (j *JSONLFormatter) Format(t *query.Table) error {
	encoder := json.NewEncoder(j.writer)
	for i := 0; i < t.NumRows(); i++ {
		if err := encoder.Encode(rowObject(t, i)); err != nil {
			return err
		}
	}
	return nil
}

// rowObject converts row i into a JSON-marshalable map. Null cells become
// JSON null and integers stay integral.
func rowObject(t *query.Table, i int) map[string]interface{} {
	row := make(map[string]interface{}, t.NumColumns())
	for j, col := range t.Columns() {
		v := t.Value(i, j)
		switch v.Kind() {
		case query.KindNull:
			row[col] = nil
		case query.KindBool:
			row[col] = v.Bool()
		case query.KindInt64:
			row[col] = v.Int()
		case query.KindFloat64:
			row[col] = v.Float()
		default:
			row[col] = v.Text()
		}
	}
	return row
}
