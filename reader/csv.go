package reader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vegasq/tablecat/query"
)

// ReadCSV loads a CSV file into a table. The first record is the header.
// Column types are inferred from the body: a column whose non-empty cells
// all parse as integers becomes Int64, then Float64, then Bool, and
// otherwise Text. Empty cells load as Null.
func ReadCSV(path string) (*query.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	t, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return t, nil
}

func readCSV(r io.Reader) (*query.Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file has no header row")
	}

	header := records[0]
	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if name == "" {
			return nil, fmt.Errorf("CSV header has an empty column name")
		}
		if seen[name] {
			return nil, fmt.Errorf("CSV header has a duplicate column name %q", name)
		}
		seen[name] = true
	}

	body := records[1:]
	kinds := inferColumnKinds(body, len(header))

	rows := make([][]query.Value, 0, len(body))
	for _, record := range body {
		row := make([]query.Value, len(header))
		for i := range header {
			row[i] = convertCell(record[i], kinds[i])
		}
		rows = append(rows, row)
	}
	return query.NewTable(header, rows)
}

func inferColumnKinds(records [][]string, width int) []query.ValueKind {
	kinds := make([]query.ValueKind, width)
	for col := range kinds {
		kinds[col] = inferKind(records, col)
	}
	return kinds
}

// inferKind picks the narrowest kind that fits every non-empty cell of the
// column. A column with no data at all stays Text.
func inferKind(records [][]string, col int) query.ValueKind {
	allInt, allFloat, allBool := true, true, true
	seen := false
	for _, record := range records {
		cell := record[col]
		if cell == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			allFloat = false
		}
		if !strings.EqualFold(cell, "true") && !strings.EqualFold(cell, "false") {
			allBool = false
		}
	}
	switch {
	case !seen:
		return query.KindText
	case allInt:
		return query.KindInt64
	case allFloat:
		return query.KindFloat64
	case allBool:
		return query.KindBool
	}
	return query.KindText
}

func convertCell(cell string, kind query.ValueKind) query.Value {
	if cell == "" {
		return query.NullValue()
	}
	switch kind {
	case query.KindInt64:
		i, _ := strconv.ParseInt(cell, 10, 64)
		return query.IntValue(i)
	case query.KindFloat64:
		f, _ := strconv.ParseFloat(cell, 64)
		return query.FloatValue(f)
	case query.KindBool:
		return query.BoolValue(strings.EqualFold(cell, "true"))
	}
	return query.TextValue(cell)
}
