package query

import (
	"strings"
	"testing"
)

func TestNewTable(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    [][]Value
		wantErr string
	}{
		{
			name:    "valid table",
			columns: []string{"id", "name"},
			rows: [][]Value{
				{IntValue(1), TextValue("alice")},
				{IntValue(2), NullValue()},
			},
		},
		{
			name:    "no rows",
			columns: []string{"id"},
			rows:    nil,
		},
		{
			name:    "empty column name",
			columns: []string{"id", ""},
			wantErr: "name cannot be empty",
		},
		{
			name:    "duplicate column name",
			columns: []string{"id", "id"},
			wantErr: `duplicate column name "id"`,
		},
		{
			name:    "ragged row",
			columns: []string{"id", "name"},
			rows: [][]Value{
				{IntValue(1), TextValue("alice")},
				{IntValue(2)},
			},
			wantErr: "row 1 has 1 cells, want 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewTable(tt.columns, tt.rows)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("NewTable() expected error")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTable() error = %v", err)
			}
			if table.NumColumns() != len(tt.columns) {
				t.Errorf("NumColumns() = %d, want %d", table.NumColumns(), len(tt.columns))
			}
			if table.NumRows() != len(tt.rows) {
				t.Errorf("NumRows() = %d, want %d", table.NumRows(), len(tt.rows))
			}
		})
	}
}

func TestTable_CopiesInputs(t *testing.T) {
	row := []Value{IntValue(1)}
	table, err := NewTable([]string{"id"}, [][]Value{row})
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	row[0] = IntValue(99)
	if table.Value(0, 0).Int() != 1 {
		t.Errorf("Value(0,0) = %v, want original 1", table.Value(0, 0))
	}
}

func TestTable_AccessorsReturnCopies(t *testing.T) {
	table, err := NewTable([]string{"id", "name"}, [][]Value{
		{IntValue(1), TextValue("alice")},
	})
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	cols := table.Columns()
	cols[0] = "mutated"
	if table.Columns()[0] != "id" {
		t.Errorf("Columns()[0] = %q after caller mutation, want %q", table.Columns()[0], "id")
	}

	row := table.Row(0)
	row[0] = IntValue(99)
	if table.Value(0, 0).Int() != 1 {
		t.Errorf("Value(0,0) = %v after caller mutation, want 1", table.Value(0, 0))
	}
}

func TestTable_ColumnIndex(t *testing.T) {
	table, err := NewTable([]string{"id", "name"}, nil)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	if idx, ok := table.ColumnIndex("name"); !ok || idx != 1 {
		t.Errorf("ColumnIndex(name) = %d, %v, want 1, true", idx, ok)
	}
	if _, ok := table.ColumnIndex("missing"); ok {
		t.Error("ColumnIndex(missing) = true, want false")
	}
}

func TestTable_Equal(t *testing.T) {
	base, err := NewTable([]string{"id", "score"}, [][]Value{
		{IntValue(1), FloatValue(9.5)},
	})
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	tests := []struct {
		name    string
		columns []string
		rows    [][]Value
		want    bool
	}{
		{
			name:    "identical",
			columns: []string{"id", "score"},
			rows:    [][]Value{{IntValue(1), FloatValue(9.5)}},
			want:    true,
		},
		{
			name:    "numeric kinds compare equal",
			columns: []string{"id", "score"},
			rows:    [][]Value{{FloatValue(1.0), FloatValue(9.5)}},
			want:    true,
		},
		{
			name:    "different column name",
			columns: []string{"id", "rating"},
			rows:    [][]Value{{IntValue(1), FloatValue(9.5)}},
			want:    false,
		},
		{
			name:    "different cell",
			columns: []string{"id", "score"},
			rows:    [][]Value{{IntValue(1), FloatValue(9.6)}},
			want:    false,
		},
		{
			name:    "different row count",
			columns: []string{"id", "score"},
			rows:    nil,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other, err := NewTable(tt.columns, tt.rows)
			if err != nil {
				t.Fatalf("NewTable() error = %v", err)
			}
			if got := base.Equal(other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}

	if base.Equal(nil) {
		t.Error("Equal(nil) = true, want false")
	}
}
