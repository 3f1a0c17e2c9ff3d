// Package query compiles SQL SELECT statements into canonical plans and
// executes them over in-memory tables.
//
// A query moves through four stages: Tokenize turns text into a token
// stream, Parse builds a SelectStatement from the tokens, GeneratePlan
// lowers the statement into a Plan with normalized operators and classified
// operands, and Execute runs the plan against named tables. Compile bundles
// the first three stages.
//
// The language covers:
//   - SELECT with projection, aliases, DISTINCT, and computed expressions
//   - WHERE with AND/OR, NOT, IN, LIKE, BETWEEN, and IS NULL
//   - JOINs (INNER, LEFT, RIGHT, FULL, CROSS) with multi-key ON conditions
//   - GROUP BY with COUNT, SUM, AVG, MIN, MAX and HAVING
//   - ORDER BY, LIMIT, and OFFSET
//   - UNION, INTERSECT, and EXCEPT with optional ALL
//   - Scalar and IN subqueries (uncorrelated)
//   - CASE expressions in both simple and searched forms
//   - Scalar string and math functions
//
// # Basic Usage
//
// Compile once, then execute against a table map:
//
//	plan, err := query.Compile("SELECT name, age FROM users WHERE age > 30 ORDER BY name")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := query.Execute(plan, map[string]*query.Table{"users": users})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for i := 0; i < result.NumRows(); i++ {
//	    fmt.Println(result.Row(i))
//	}
//
// Tables are immutable: Execute never modifies its inputs, and a compiled
// plan can be run concurrently against shared tables.
//
// # Building Tables
//
// NewTable validates the column layout and copies its inputs:
//
//	users, err := query.NewTable(
//	    []string{"id", "name", "age"},
//	    [][]query.Value{
//	        {query.IntValue(1), query.TextValue("alice"), query.IntValue(34)},
//	        {query.IntValue(2), query.TextValue("bob"), query.NullValue()},
//	    },
//	)
//
// # Null Semantics
//
// Null is a first-class cell value. Two Nulls are equal under = and under
// DISTINCT and GROUP BY keying; every other comparison involving a Null is
// false, including NOT IN and NOT LIKE. Aggregates skip Null inputs, join
// keys containing Null never match, and Null sorts before every non-null
// value.
//
// # Error Handling
//
// Each stage reports failures with its own type: LexError for bad input
// characters, ParseError for grammar violations with the expected and found
// tokens, and ExecError for runtime failures classified by ExecErrorKind
// (unknown tables or columns, ambiguous references, type mismatches, shape
// errors, and the recursion limit). SemanticError marks plan-generator
// defects and should not surface for well-formed input.
package query
