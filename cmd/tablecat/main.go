package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vegasq/tablecat/fallback"
	"github.com/vegasq/tablecat/output"
	"github.com/vegasq/tablecat/query"
	"github.com/vegasq/tablecat/reader"
)

var (
	queryFlag   = flag.String("q", "", "SQL query (e.g., \"select * from students where score > 80\")")
	formatFlag  = flag.String("f", "table", "Output format: table, csv, json, jsonl")
	limitFlag   = flag.Int("limit", 0, "Limit number of rows (0 = unlimited)")
	schemaFlag  = flag.Bool("schema", false, "Show schema information instead of data")
	lenientFlag = flag.Bool("lenient", false, "Answer unparseable queries with a best-effort interpreter")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file.csv|file.parquet> [more files...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Query CSV and Parquet files with SQL. Each file becomes a table named\n")
		fmt.Fprintf(os.Stderr, "after its base name; glob patterns concatenate into one table.\n\n")
		fmt.Fprintf(os.Stderr, "IMPORTANT: All flags must come BEFORE file arguments.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -q \"select * from students\" students.csv\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -f csv -q \"select name, score from students order by score desc\" students.csv\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -q \"select s.name, g.grade from students s join grades g on s.id = g.sid\" students.csv grades.csv\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --schema students.parquet\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s students.csv grades.parquet    (starts an interactive prompt)\n", os.Args[0])
	}

	flag.Parse()

	if *limitFlag < 0 {
		fmt.Fprintf(os.Stderr, "Error: -limit must be non-negative, got %d\n", *limitFlag)
		os.Exit(1)
	}
	if *schemaFlag && *queryFlag != "" {
		fmt.Fprintf(os.Stderr, "Error: --schema and -q cannot be used together\n")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing data file argument\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if *schemaFlag {
		if err := showSchemas(flag.Args(), *formatFlag, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	tables, err := reader.ReadTables(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *queryFlag == "" {
		if err := runREPL(tables, *formatFlag, *lenientFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	result, plan, err := runQuery(*queryFlag, tables, *lenientFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The flag only caps queries that did not limit themselves.
	if *limitFlag > 0 && (plan == nil || plan.Limit == nil) {
		result = capRows(result, *limitFlag)
	}

	formatter, err := output.New(*formatFlag, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Supported formats: table, csv, json, jsonl\n")
		os.Exit(1)
	}
	if err := formatter.Format(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
}

// runQuery compiles and executes one statement. When the engine fails in
// lenient mode it retries with the restricted interpreter; the plan is nil
// on that path.
func runQuery(sql string, tables map[string]*query.Table, lenient bool) (*query.Table, *query.Plan, error) {
	plan, err := query.Compile(sql)
	if err == nil {
		var result *query.Table
		if result, err = query.Execute(plan, tables); err == nil {
			return result, plan, nil
		}
	}
	if lenient {
		if result, ferr := fallback.Run(sql, tables); ferr == nil {
			return result, nil, nil
		}
	}
	return nil, nil, err
}

// capRows returns a table with at most limit rows.
func capRows(t *query.Table, limit int) *query.Table {
	if t.NumRows() <= limit {
		return t
	}
	rows := make([][]query.Value, 0, limit)
	for i := 0; i < limit; i++ {
		rows = append(rows, t.Row(i))
	}
	capped, err := query.NewTable(t.Columns(), rows)
	if err != nil {
		return t
	}
	return capped
}

// showSchemas prints the column layout of each file through the selected
// formatter. Glob patterns report the first matching file.
func showSchemas(paths []string, format string, w io.Writer) error {
	formatter, err := output.New(format, w)
	if err != nil {
		return err
	}

	columns := []string{"column", "type"}
	multi := len(paths) > 1
	if multi {
		columns = []string{"file", "column", "type"}
	}

	var rows [][]query.Value
	for _, path := range paths {
		resolved := path
		if strings.ContainsAny(path, "*?[") {
			matches, err := filepath.Glob(path)
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %w", path, err)
			}
			if len(matches) == 0 {
				return fmt.Errorf("no files match %q", path)
			}
			resolved = matches[0]
			if len(matches) > 1 {
				fmt.Fprintf(os.Stderr, "# Showing schema from: %s (%d files matched)\n", resolved, len(matches))
			}
		}

		cols, err := reader.Schema(resolved)
		if err != nil {
			return err
		}
		for _, col := range cols {
			row := []query.Value{query.TextValue(col.Name), query.TextValue(col.Type)}
			if multi {
				row = append([]query.Value{query.TextValue(resolved)}, row...)
			}
			rows = append(rows, row)
		}
	}

	table, err := query.NewTable(columns, rows)
	if err != nil {
		return err
	}
	return formatter.Format(table)
}
