package reader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/tablecat/query"
)

// ReadParquet loads a parquet file into a table. Columns keep the order of
// the file's schema fields.
func ReadParquet(path string) (*query.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	pqFile, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	fields := pqFile.Schema().Fields()
	columns := make([]string, 0, len(fields))
	for _, field := range fields {
		columns = append(columns, field.Name())
	}

	pr := parquet.NewReader(pqFile)
	defer pr.Close()

	var rows [][]query.Value
	for {
		record := make(map[string]interface{})
		if err := pr.Read(&record); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		row := make([]query.Value, len(columns))
		for i, col := range columns {
			row[i] = parquetValue(record[col])
		}
		rows = append(rows, row)
	}
	return query.NewTable(columns, rows)
}

// parquetValue maps a decoded parquet cell onto a table value. Types the
// engine has no kind for render through fmt.Sprint as text.
func parquetValue(v interface{}) query.Value {
	switch x := v.(type) {
	case nil:
		return query.NullValue()
	case bool:
		return query.BoolValue(x)
	case int32:
		return query.IntValue(int64(x))
	case int64:
		return query.IntValue(x)
	case int:
		return query.IntValue(int64(x))
	case float32:
		return query.FloatValue(float64(x))
	case float64:
		return query.FloatValue(x)
	case string:
		return query.TextValue(x)
	case []byte:
		return query.TextValue(string(x))
	}
	return query.TextValue(fmt.Sprint(v))
}
