package reader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/tablecat/query"
)

type parquetRow struct {
	ID     int64   `parquet:"id"`
	Name   string  `parquet:"name"`
	Score  float64 `parquet:"score"`
	Active bool    `parquet:"active"`
	Note   *string `parquet:"note,optional"`
}

func writeTempParquet(t *testing.T, rows []parquetRow) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.parquet")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	writer := parquet.NewGenericWriter[parquetRow](f)
	if _, err := writer.Write(rows); err != nil {
		t.Fatalf("failed to write test data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}
	return path
}

func TestReadParquet(t *testing.T) {
	note := "promoted"
	path := writeTempParquet(t, []parquetRow{
		{ID: 1, Name: "Alice", Score: 91.5, Active: true, Note: &note},
		{ID: 2, Name: "Bob", Score: 78.25, Active: false},
	})

	table, err := ReadParquet(path)
	if err != nil {
		t.Fatalf("ReadParquet() error = %v", err)
	}

	wantCols := []string{"id", "name", "score", "active", "note"}
	cols := table.Columns()
	if len(cols) != len(wantCols) {
		t.Fatalf("ReadParquet() returned columns %v, want %v", cols, wantCols)
	}
	for i, col := range wantCols {
		if cols[i] != col {
			t.Errorf("column %d = %q, want %q", i, cols[i], col)
		}
	}
	if table.NumRows() != 2 {
		t.Fatalf("ReadParquet() returned %d rows, want 2", table.NumRows())
	}

	if got := table.Value(0, 0); got.Kind() != query.KindInt64 || got.Int() != 1 {
		t.Errorf("id[0] = %v (%s), want integer 1", got, got.Kind())
	}
	if got := table.Value(0, 1); got.Kind() != query.KindText || got.Text() != "Alice" {
		t.Errorf("name[0] = %v (%s), want text Alice", got, got.Kind())
	}
	if got := table.Value(1, 2); got.Kind() != query.KindFloat64 || got.Float() != 78.25 {
		t.Errorf("score[1] = %v (%s), want float 78.25", got, got.Kind())
	}
	if got := table.Value(1, 3); got.Kind() != query.KindBool || got.Bool() {
		t.Errorf("active[1] = %v (%s), want bool false", got, got.Kind())
	}
	if got := table.Value(0, 4); got.Kind() != query.KindText || got.Text() != "promoted" {
		t.Errorf("note[0] = %v (%s), want text promoted", got, got.Kind())
	}
	if got := table.Value(1, 4); !got.IsNull() {
		t.Errorf("note[1] = %v, want null for the unset optional field", got)
	}
}

func TestReadParquetEmpty(t *testing.T) {
	path := writeTempParquet(t, nil)

	table, err := ReadParquet(path)
	if err != nil {
		t.Fatalf("ReadParquet() error = %v", err)
	}
	if table.NumRows() != 0 {
		t.Errorf("ReadParquet() returned %d rows, want 0", table.NumRows())
	}
	if table.NumColumns() != 5 {
		t.Errorf("ReadParquet() returned %d columns, want 5", table.NumColumns())
	}
}

func TestReadParquetMissingFile(t *testing.T) {
	if _, err := ReadParquet(filepath.Join(t.TempDir(), "absent.parquet")); err == nil {
		t.Errorf("ReadParquet() expected error for missing file, got nil")
	}
}

func TestReadParquetNotParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.parquet")
	if err := os.WriteFile(path, []byte("not a parquet file"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if _, err := ReadParquet(path); err == nil {
		t.Errorf("ReadParquet() expected error for corrupt file, got nil")
	}
}
