// Package output provides formatters for rendering query results.
//
// This package defines the Formatter interface and implementations for the
// formats the command line tool supports. All formatters consume a
// *query.Table.
//
// # Supported Formats
//
//   - table: ASCII grid for terminals
//   - csv: comma-separated values with a header row
//   - json: one JSON array of objects
//   - jsonl: one JSON object per line (suitable for streaming)
//
// # Basic Usage
//
// Pick a formatter by name:
//
//	formatter, err := output.New("csv", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(result); err != nil {
//	    log.Fatal(err)
//	}
//
// Or construct one directly:
//
//	formatter := output.NewJSONLFormatter(os.Stdout)
//	if err := formatter.Format(result); err != nil {
//	    log.Fatal(err)
//	}
//
// # Writing to Different Destinations
//
// Change the output destination dynamically:
//
//	file, err := os.Create("result.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer file.Close()
//
//	formatter.SetOutput(file)
//	if err := formatter.Format(result); err != nil {
//	    log.Fatal(err)
//	}
//
// # Null Handling
//
// Null cells render as empty fields in the table and CSV formats and as
// JSON null in the JSON formats.
package output
