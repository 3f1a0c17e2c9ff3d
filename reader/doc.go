// Package reader loads CSV and Parquet files into query tables.
//
// Every loader produces a *query.Table with typed values: integers become
// Int64, floating point numbers Float64, booleans Bool, text Text, and
// missing cells Null.
//
// # Basic Usage
//
// Loading a single file:
//
//	t, err := reader.ReadCSV("students.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(t.NumRows())
//
// # Loading Many Files
//
// ReadTables maps each path (or glob pattern) to a named table, keyed by
// the file's base name without extension:
//
//	tables, err := reader.ReadTables([]string{"students.csv", "grades.parquet"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := query.Execute(plan, tables)
//
// A glob pattern whose matches share one schema concatenates their rows
// into a single table named after the pattern's base:
//
//	tables, err := reader.ReadTables([]string{"events-*.csv"})
//	// tables["events"] holds the rows of every matching file
//
// # Schema Introspection
//
// Schema reports a file's column layout without materializing rows for
// CSV headers or parquet metadata:
//
//	cols, err := reader.Schema("data.parquet")
//	for _, col := range cols {
//	    fmt.Printf("%s: %s\n", col.Name, col.Type)
//	}
//
// Parquet support uses github.com/parquet-go/parquet-go.
package reader
