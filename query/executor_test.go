package query

import (
	"errors"
	"testing"
)

func mustTable(t *testing.T, columns []string, rows [][]Value) *Table {
	t.Helper()
	table, err := NewTable(columns, rows)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return table
}

func usersTable(t *testing.T) *Table {
	t.Helper()
	return mustTable(t,
		[]string{"id", "name", "city", "age"},
		[][]Value{
			{IntValue(1), TextValue("Alice"), TextValue("Oslo"), IntValue(30)},
			{IntValue(2), TextValue("Bob"), TextValue("Bergen"), NullValue()},
			{IntValue(3), TextValue("Carol"), TextValue("Oslo"), IntValue(25)},
			{IntValue(4), TextValue("Dave"), NullValue(), IntValue(40)},
		})
}

func ordersTable(t *testing.T) *Table {
	t.Helper()
	return mustTable(t,
		[]string{"id", "user_id", "amount", "status"},
		[][]Value{
			{IntValue(10), IntValue(1), IntValue(100), TextValue("paid")},
			{IntValue(11), IntValue(1), FloatValue(250.5), TextValue("paid")},
			{IntValue(12), IntValue(2), IntValue(80), TextValue("pending")},
			{IntValue(13), IntValue(3), IntValue(30), TextValue("paid")},
			{IntValue(14), NullValue(), IntValue(60), TextValue("paid")},
		})
}

func fixtureTables(t *testing.T) map[string]*Table {
	t.Helper()
	return map[string]*Table{
		"users":  usersTable(t),
		"orders": ordersTable(t),
	}
}

func runQuery(t *testing.T, q string, tables map[string]*Table) *Table {
	t.Helper()
	plan, err := Compile(q)
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", q, err)
	}
	result, err := Execute(plan, tables)
	if err != nil {
		t.Fatalf("Execute(%q) error = %v", q, err)
	}
	return result
}

func runQueryErr(t *testing.T, q string, tables map[string]*Table) error {
	t.Helper()
	plan, err := Compile(q)
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", q, err)
	}
	_, err = Execute(plan, tables)
	if err == nil {
		t.Fatalf("Execute(%q) expected error", q)
	}
	return err
}

func checkTable(t *testing.T, got *Table, wantCols []string, wantRows [][]Value) {
	t.Helper()
	cols := got.Columns()
	if len(cols) != len(wantCols) {
		t.Fatalf("got columns %v, want %v", cols, wantCols)
	}
	for i := range wantCols {
		if cols[i] != wantCols[i] {
			t.Fatalf("got columns %v, want %v", cols, wantCols)
		}
	}
	if got.NumRows() != len(wantRows) {
		t.Fatalf("got %d rows, want %d", got.NumRows(), len(wantRows))
	}
	for i, wantRow := range wantRows {
		row := got.Row(i)
		for j := range wantRow {
			if !valuesEqual(row[j], wantRow[j]) {
				t.Errorf("row %d column %d = %v, want %v", i, j, row[j], wantRow[j])
			}
		}
	}
}

func checkExecErr(t *testing.T, err error, kind ExecErrorKind) *ExecError {
	t.Helper()
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("error = %v, want *ExecError", err)
	}
	if execErr.Kind != kind {
		t.Fatalf("error kind = %v, want %v (%v)", execErr.Kind, kind, err)
	}
	return execErr
}

func TestExecute_SelectStar(t *testing.T) {
	got := runQuery(t, "select * from users", fixtureTables(t))
	if !got.Equal(usersTable(t)) {
		t.Errorf("select * changed the table:\n%v", got)
	}
}

func TestExecute_PlanReusable(t *testing.T) {
	plan, err := Compile("select name from users where id in (select user_id from orders where status = 'paid') order by name")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	tables := fixtureTables(t)
	first, err := Execute(plan, tables)
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	second, err := Execute(plan, tables)
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !first.Equal(second) {
		t.Errorf("repeated execution of one plan diverged")
	}
	checkTable(t, second,
		[]string{"name"},
		[][]Value{{TextValue("Alice")}, {TextValue("Carol")}})
}

func TestExecute_NamedColumns(t *testing.T) {
	got := runQuery(t, "select name, id from users", fixtureTables(t))
	checkTable(t, got,
		[]string{"name", "id"},
		[][]Value{
			{TextValue("Alice"), IntValue(1)},
			{TextValue("Bob"), IntValue(2)},
			{TextValue("Carol"), IntValue(3)},
			{TextValue("Dave"), IntValue(4)},
		})
}

func TestExecute_ColumnAliases(t *testing.T) {
	got := runQuery(t, "select name as who, id user_key from users where id = 1", fixtureTables(t))
	checkTable(t, got,
		[]string{"who", "user_key"},
		[][]Value{{TextValue("Alice"), IntValue(1)}})
}

func TestExecute_QualifiedColumns(t *testing.T) {
	got := runQuery(t, "select u.name from users u where u.id = 3", fixtureTables(t))
	checkTable(t, got, []string{"name"}, [][]Value{{TextValue("Carol")}})
}

func TestExecute_Where(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantIDs []int64
	}{
		{name: "equality", query: "select id from users where city = 'Oslo'", wantIDs: []int64{1, 3}},
		{name: "and", query: "select id from users where city = 'Oslo' and age > 26", wantIDs: []int64{1}},
		{name: "or", query: "select id from users where id = 1 or id = 4", wantIDs: []int64{1, 4}},
		{name: "in list", query: "select id from users where id in (2, 4)", wantIDs: []int64{2, 4}},
		{name: "not in list", query: "select id from users where id not in (1, 2, 3)", wantIDs: []int64{4}},
		{name: "between", query: "select id from users where age between 25 and 30", wantIDs: []int64{1, 3}},
		{name: "like", query: "select id from users where name like '%a%'", wantIDs: []int64{3, 4}},
		{name: "not like", query: "select id from users where name not like '%o%'", wantIDs: []int64{1, 4}},
		{name: "no matches", query: "select id from users where city = 'Paris'", wantIDs: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runQuery(t, tt.query, fixtureTables(t))
			if got.NumRows() != len(tt.wantIDs) {
				t.Fatalf("got %d rows, want %d", got.NumRows(), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got.Value(i, 0).Int() != want {
					t.Errorf("row %d id = %v, want %d", i, got.Value(i, 0), want)
				}
			}
		})
	}
}

func TestExecute_WhereNullSemantics(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantIDs []int64
	}{
		// Bob's age is null, so comparisons never admit him
		{name: "gt skips null", query: "select id from users where age > 0", wantIDs: []int64{1, 3, 4}},
		{name: "ne skips null", query: "select id from users where age != 30", wantIDs: []int64{3, 4}},
		{name: "is null", query: "select id from users where age is null", wantIDs: []int64{2}},
		{name: "is not null", query: "select id from users where age is not null", wantIDs: []int64{1, 3, 4}},
		{name: "not in with null operand", query: "select id from users where age not in (30)", wantIDs: []int64{3, 4}},
		{name: "like skips null", query: "select id from users where city like '%'", wantIDs: []int64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runQuery(t, tt.query, fixtureTables(t))
			if got.NumRows() != len(tt.wantIDs) {
				t.Fatalf("got %d rows, want %d", got.NumRows(), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got.Value(i, 0).Int() != want {
					t.Errorf("row %d id = %v, want %d", i, got.Value(i, 0), want)
				}
			}
		})
	}
}

func TestExecute_Distinct(t *testing.T) {
	got := runQuery(t, "select distinct city from users", fixtureTables(t))
	checkTable(t, got, []string{"city"}, [][]Value{
		{TextValue("Oslo")},
		{TextValue("Bergen")},
		{NullValue()},
	})
}

func TestExecute_DistinctMultiColumn(t *testing.T) {
	got := runQuery(t, "select distinct status, user_id from orders where user_id = 1", fixtureTables(t))
	checkTable(t, got, []string{"status", "user_id"}, [][]Value{
		{TextValue("paid"), IntValue(1)},
	})
}

func TestExecute_LimitOffset(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantIDs []int64
	}{
		{name: "limit", query: "select id from users limit 2", wantIDs: []int64{1, 2}},
		{name: "limit offset", query: "select id from users limit 2 offset 1", wantIDs: []int64{2, 3}},
		{name: "offset past end", query: "select id from users limit 5 offset 10", wantIDs: []int64{}},
		{name: "limit zero", query: "select id from users limit 0", wantIDs: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runQuery(t, tt.query, fixtureTables(t))
			if got.NumRows() != len(tt.wantIDs) {
				t.Fatalf("got %d rows, want %d", got.NumRows(), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got.Value(i, 0).Int() != want {
					t.Errorf("row %d id = %v, want %d", i, got.Value(i, 0), want)
				}
			}
		})
	}
}

func TestExecute_ExpressionColumns(t *testing.T) {
	got := runQuery(t, "select upper(name), length(name) as n from users where id < 3", fixtureTables(t))
	checkTable(t, got,
		[]string{"UPPER(name)", "n"},
		[][]Value{
			{TextValue("ALICE"), IntValue(5)},
			{TextValue("BOB"), IntValue(3)},
		})
}

func TestExecute_NestedFunctionDisplayName(t *testing.T) {
	got := runQuery(t, "select upper(trim(name)) from users where id = 1", fixtureTables(t))
	if cols := got.Columns(); cols[0] != "UPPER(TRIM(name))" {
		t.Errorf("column name = %q, want %q", cols[0], "UPPER(TRIM(name))")
	}
}

func TestExecute_FunctionOverNull(t *testing.T) {
	got := runQuery(t, "select upper(city) from users where id = 4", fixtureTables(t))
	if !got.Value(0, 0).IsNull() {
		t.Errorf("upper(null) = %v, want null", got.Value(0, 0))
	}
}

func TestExecute_UnknownTable(t *testing.T) {
	err := runQueryErr(t, "select * from missing", fixtureTables(t))
	execErr := checkExecErr(t, err, ErrUnknownTable)
	if execErr.Table != "missing" {
		t.Errorf("Table = %q, want %q", execErr.Table, "missing")
	}
}

func TestExecute_UnknownColumn(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "in select list", query: "select nope from users"},
		{name: "in where", query: "select id from users where nope = 1"},
		{name: "wrong qualifier", query: "select u.id from users x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runQueryErr(t, tt.query, fixtureTables(t))
			checkExecErr(t, err, ErrUnknownColumn)
		})
	}
}

func TestExecute_UnknownColumnOverZeroRows(t *testing.T) {
	// Reference validation runs before row iteration, so an empty table
	// still surfaces the error
	tables := map[string]*Table{"empty": mustTable(t, []string{"id"}, nil)}
	err := runQueryErr(t, "select id from empty where nope = 1", tables)
	checkExecErr(t, err, ErrUnknownColumn)
}

func TestExecute_SetOperations(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantIDs []int64
	}{
		{
			name:    "union deduplicates",
			query:   "select id from users where id < 3 union select id from users where id > 1",
			wantIDs: []int64{1, 2, 3, 4},
		},
		{
			name:    "union all keeps duplicates",
			query:   "select id from users where id = 1 union all select id from users where id = 1",
			wantIDs: []int64{1, 1},
		},
		{
			name:    "intersect",
			query:   "select id from users where id < 3 intersect select id from users where id > 1",
			wantIDs: []int64{2},
		},
		{
			name:    "except",
			query:   "select id from users except select id from users where city = 'Oslo'",
			wantIDs: []int64{2, 4},
		},
		{
			name:    "chained left to right",
			query:   "select id from users union select id from users except select id from users where id = 1",
			wantIDs: []int64{2, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runQuery(t, tt.query, fixtureTables(t))
			if got.NumRows() != len(tt.wantIDs) {
				t.Fatalf("got %d rows, want %d", got.NumRows(), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got.Value(i, 0).Int() != want {
					t.Errorf("row %d = %v, want %d", i, got.Value(i, 0), want)
				}
			}
		})
	}
}

func TestExecute_SetOpColumnNamesFromLeft(t *testing.T) {
	got := runQuery(t, "select id as key from users where id = 1 union select id from users where id = 2", fixtureTables(t))
	if cols := got.Columns(); cols[0] != "key" {
		t.Errorf("column name = %q, want %q", cols[0], "key")
	}
}

func TestExecute_SetOpArityMismatch(t *testing.T) {
	err := runQueryErr(t, "select id from users union select id, name from users", fixtureTables(t))
	checkExecErr(t, err, ErrTypeMismatch)
}

func TestExecute_InputTablesNotMutated(t *testing.T) {
	tables := fixtureTables(t)
	runQuery(t, "select name from users where id > 1 order by name desc limit 2", tables)
	runQuery(t, "select distinct status from orders order by status", tables)

	if !tables["users"].Equal(usersTable(t)) {
		t.Errorf("users table was mutated")
	}
	if !tables["orders"].Equal(ordersTable(t)) {
		t.Errorf("orders table was mutated")
	}
}

func TestExecute_ComparisonTypeMismatch(t *testing.T) {
	err := runQueryErr(t, "select id from users where name > 5", fixtureTables(t))
	checkExecErr(t, err, ErrTypeMismatch)
}

func TestExecute_NilPlan(t *testing.T) {
	if _, err := Execute(nil, fixtureTables(t)); err == nil {
		t.Fatal("Execute(nil) expected error")
	}
}
