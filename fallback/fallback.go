// Package fallback answers a restricted query shape with regular
// expressions when the full parser rejects the input. It understands
// single-table SELECTs of the form
//
//	SELECT cols FROM table [WHERE col op value] [ORDER BY col [ASC|DESC]] [LIMIT n]
//
// with one comparison in the WHERE clause. Anything else is an error; the
// caller decides whether to surface the original parse error instead.
package fallback

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vegasq/tablecat/query"
)

var queryPattern = regexp.MustCompile(`(?i)^\s*select\s+(\*|\w+(?:\s*,\s*\w+)*)\s+from\s+(\w+)` +
	`(?:\s+where\s+(\w+)\s*(!=|<>|<=|>=|=|<|>)\s*('[^']*'|[^\s;]+))?` +
	`(?:\s+order\s+by\s+(\w+)(?:\s+(asc|desc))?)?` +
	`(?:\s+limit\s+(\d+))?\s*;?\s*$`)

// Run evaluates a query against the loaded tables using the restricted
// pattern above.
func Run(sql string, tables map[string]*query.Table) (*query.Table, error) {
	m := queryPattern.FindStringSubmatch(sql)
	if m == nil {
		return nil, fmt.Errorf("query is too complex for lenient mode")
	}
	colsPart, tableName := m[1], m[2]
	whereCol, whereOp, whereVal := m[3], m[4], m[5]
	orderCol, orderDir, limitPart := m[6], m[7], m[8]

	table, ok := tables[tableName]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", tableName)
	}

	rows := make([][]query.Value, 0, table.NumRows())
	for i := 0; i < table.NumRows(); i++ {
		rows = append(rows, table.Row(i))
	}

	if whereCol != "" {
		idx, ok := table.ColumnIndex(whereCol)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", whereCol)
		}
		want := parseLiteral(whereVal)
		kept := rows[:0]
		for _, row := range rows {
			if looseCompare(row[idx], whereOp, want) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	if orderCol != "" {
		idx, ok := table.ColumnIndex(orderCol)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", orderCol)
		}
		descending := strings.EqualFold(orderDir, "desc")
		sort.SliceStable(rows, func(i, j int) bool {
			c := looseOrder(rows[i][idx], rows[j][idx])
			if descending {
				return c > 0
			}
			return c < 0
		})
	}

	if limitPart != "" {
		n, err := strconv.Atoi(limitPart)
		if err != nil {
			return nil, fmt.Errorf("bad limit %q", limitPart)
		}
		if n < len(rows) {
			rows = rows[:n]
		}
	}

	columns := table.Columns()
	if colsPart != "*" {
		var idxs []int
		columns = nil
		for _, name := range strings.Split(colsPart, ",") {
			name = strings.TrimSpace(name)
			idx, ok := table.ColumnIndex(name)
			if !ok {
				return nil, fmt.Errorf("unknown column %q", name)
			}
			idxs = append(idxs, idx)
			columns = append(columns, name)
		}
		projected := make([][]query.Value, len(rows))
		for i, row := range rows {
			out := make([]query.Value, len(idxs))
			for j, idx := range idxs {
				out[j] = row[idx]
			}
			projected[i] = out
		}
		rows = projected
	}

	return query.NewTable(columns, rows)
}

// parseLiteral reads a WHERE comparison value: quoted text, a number, a
// boolean, or a bare word treated as text.
func parseLiteral(s string) query.Value {
	if strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") && len(s) >= 2 {
		return query.TextValue(s[1 : len(s)-1])
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return query.IntValue(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return query.FloatValue(f)
	}
	if strings.EqualFold(s, "true") || strings.EqualFold(s, "false") {
		return query.BoolValue(strings.EqualFold(s, "true"))
	}
	return query.TextValue(s)
}

// looseCompare never errors: null cells and mismatched kinds simply fail
// to match.
func looseCompare(left query.Value, op string, right query.Value) bool {
	if left.IsNull() || right.IsNull() {
		return false
	}
	c, ok := looseCmp(left, right)
	if !ok {
		return false
	}
	switch op {
	case "=":
		return c == 0
	case "!=", "<>":
		return c != 0
	case "<":
		return c < 0
	case ">":
		return c > 0
	case "<=":
		return c <= 0
	case ">=":
		return c >= 0
	}
	return false
}

func looseCmp(a, b query.Value) (int, bool) {
	if af, aok := asNumber(a); aok {
		bf, bok := asNumber(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	if a.Kind() != b.Kind() {
		return 0, false
	}
	if a.Kind() == query.KindBool {
		if a.Bool() == b.Bool() {
			return 0, true
		}
		if b.Bool() {
			return -1, true
		}
		return 1, true
	}
	return strings.Compare(a.Text(), b.Text()), true
}

// looseOrder sorts nulls first and falls back to text ordering across
// kinds so the sort is always total.
func looseOrder(a, b query.Value) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return -1
	case b.IsNull():
		return 1
	}
	if c, ok := looseCmp(a, b); ok {
		return c
	}
	return strings.Compare(a.String(), b.String())
}

func asNumber(v query.Value) (float64, bool) {
	switch v.Kind() {
	case query.KindInt64:
		return float64(v.Int()), true
	case query.KindFloat64:
		return v.Float(), true
	}
	return 0, false
}
