package reader

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ColumnSchema describes one column of a data file.
type ColumnSchema struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema reports the column layout of a CSV or parquet file without loading
// it as a table. CSV types come from the same inference ReadCSV applies;
// parquet types come from the file's schema metadata.
func Schema(path string) ([]ColumnSchema, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return csvSchema(path)
	case ".parquet":
		return parquetSchema(path)
	}
	return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
}

func csvSchema(path string) ([]ColumnSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file has no header row")
	}

	header := records[0]
	kinds := inferColumnKinds(records[1:], len(header))
	cols := make([]ColumnSchema, len(header))
	for i, name := range header {
		cols[i] = ColumnSchema{Name: name, Type: kinds[i].String()}
	}
	return cols, nil
}

func parquetSchema(path string) ([]ColumnSchema, error) {
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

	var cols []ColumnSchema
	for _, field := range pqFile.Schema().Fields() {
		cols = appendFieldSchema(cols, "", field)
	}
	return cols, nil
}

// appendFieldSchema walks nested groups, joining names with dots.
func appendFieldSchema(cols []ColumnSchema, prefix string, field parquet.Field) []ColumnSchema {
	name := prefix + field.Name()
	if sub := field.Fields(); len(sub) > 0 {
		for _, child := range sub {
			cols = appendFieldSchema(cols, name+".", child)
		}
		return cols
	}
	return append(cols, ColumnSchema{Name: name, Type: friendlyType(field)})
}

// friendlyType names a leaf field's type the way users expect to read it
// rather than by its raw physical encoding.
func friendlyType(field parquet.Field) string {
	t := field.Type()
	if lt := t.LogicalType(); lt != nil && lt.UTF8 != nil {
		return "string"
	}
	switch t.Kind() {
	case parquet.Boolean:
		return "boolean"
	case parquet.Int32:
		return "int32"
	case parquet.Int64:
		return "int64"
	case parquet.Int96:
		return "int96"
	case parquet.Float:
		return "float"
	case parquet.Double:
		return "double"
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return "binary"
	}
	return t.String()
}
