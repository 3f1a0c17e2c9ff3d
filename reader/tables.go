package reader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vegasq/tablecat/query"
)

// maxGlobFiles caps how many files a single glob pattern may expand to.
const maxGlobFiles = 1000

// ReadTables loads each path into a named table. Glob patterns expand and
// concatenate their matches into one table; plain paths load a single file.
// Table names derive from the path's base without extension, so
// "data/students.csv" becomes the table "students".
func ReadTables(paths []string) (map[string]*query.Table, error) {
	tables := make(map[string]*query.Table, len(paths))
	for _, path := range paths {
		name, t, err := readPattern(path)
		if err != nil {
			return nil, err
		}
		if _, ok := tables[name]; ok {
			return nil, fmt.Errorf("duplicate table name %q", name)
		}
		tables[name] = t
	}
	return tables, nil
}

func readPattern(path string) (string, *query.Table, error) {
	if !strings.ContainsAny(path, "*?[") {
		t, err := readFile(path)
		if err != nil {
			return "", nil, err
		}
		return tableName(path), t, nil
	}

	matches, err := filepath.Glob(path)
	if err != nil {
		return "", nil, fmt.Errorf("invalid pattern %q: %w", path, err)
	}
	if len(matches) == 0 {
		return "", nil, fmt.Errorf("no files match %q", path)
	}
	if len(matches) > maxGlobFiles {
		return "", nil, fmt.Errorf("pattern %q matches %d files, limit is %d", path, len(matches), maxGlobFiles)
	}

	ext := ""
	var columns []string
	var rows [][]query.Value
	for _, match := range matches {
		if e := strings.ToLower(filepath.Ext(match)); ext == "" {
			ext = e
		} else if e != ext {
			return "", nil, fmt.Errorf("pattern %q matches files of mixed types", path)
		}

		t, err := readFile(match)
		if err != nil {
			return "", nil, err
		}
		if columns == nil {
			columns = t.Columns()
		} else if !sameColumns(columns, t.Columns()) {
			return "", nil, fmt.Errorf("file %s: columns do not match the rest of %q", match, path)
		}
		for i := 0; i < t.NumRows(); i++ {
			rows = append(rows, t.Row(i))
		}
	}

	t, err := query.NewTable(columns, rows)
	if err != nil {
		return "", nil, err
	}
	return tableName(path), t, nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// readFile dispatches on the file extension.
func readFile(path string) (*query.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".parquet":
		return ReadParquet(path)
	}
	return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
}

// tableName derives a table name from a path or pattern: the base name
// without extension and without glob metacharacters.
func tableName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '*', '?', '[', ']':
			return -1
		}
		return r
	}, base)
	base = strings.Trim(base, "-_.")
	if base == "" {
		return "table"
	}
	return base
}
