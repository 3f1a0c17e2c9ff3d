package query

import (
	"fmt"
	"sort"
	"strings"
)

// rowEval evaluates plan conditions and expressions against single rows of
// a relation. The strict flag switches column resolution to the
// provenance-only rules used for join ON conditions.
type rowEval struct {
	env    *execEnv
	rel    *relation
	strict bool
}

func (ev *rowEval) resolveRef(qualifier, name string) (int, error) {
	if ev.strict {
		return ev.rel.resolveStrict(qualifier, name)
	}
	return ev.rel.resolve(qualifier, name)
}

// validateCond resolves every column reference in a condition tree without
// evaluating it, so unknown or ambiguous names surface even when the
// relation has no rows to iterate.
func (ev *rowEval) validateCond(cond *PlanCond) error {
	if cond == nil {
		return nil
	}
	if cond.Logical != "" {
		if err := ev.validateCond(cond.Left); err != nil {
			return err
		}
		return ev.validateCond(cond.Right)
	}
	if _, err := ev.resolveRef(cond.Qualifier, cond.Column); err != nil {
		return err
	}
	if cond.Operand.Kind == OperandColumn {
		if _, err := ev.resolveRef(cond.Operand.Qualifier, cond.Operand.Name); err != nil {
			return err
		}
	}
	return nil
}

// validateExpr resolves column references and function names inside an
// expression ahead of row evaluation.
func (ev *rowEval) validateExpr(e *PlanExpr) error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ExprColumn:
		_, err := ev.resolveRef(e.Qualifier, e.Name)
		return err
	case ExprFunction:
		if _, exists := GetGlobalRegistry().Get(e.Name); !exists {
			return fmt.Errorf("unknown function: %s", e.Name)
		}
		for _, arg := range e.Args {
			if err := ev.validateExpr(arg); err != nil {
				return err
			}
		}
	case ExprCase:
		if err := ev.validateExpr(e.Subject); err != nil {
			return err
		}
		for _, when := range e.Whens {
			if err := ev.validateExpr(when.Match); err != nil {
				return err
			}
			if err := ev.validateCond(when.Cond); err != nil {
				return err
			}
			if err := ev.validateExpr(when.Then); err != nil {
				return err
			}
		}
		return ev.validateExpr(e.Else)
	}
	return nil
}

// evalCond evaluates a condition tree for one row. AND and OR short-circuit
// on the left result.
func (ev *rowEval) evalCond(row []Value, cond *PlanCond) (bool, error) {
	if cond.Logical != "" {
		left, err := ev.evalCond(row, cond.Left)
		if err != nil {
			return false, err
		}
		switch cond.Logical {
		case LogicalAnd:
			if !left {
				return false, nil
			}
		case LogicalOr:
			if left {
				return true, nil
			}
		}
		return ev.evalCond(row, cond.Right)
	}
	return ev.evalCompare(row, cond)
}

// evalCompare evaluates a single comparison leaf against one row.
func (ev *rowEval) evalCompare(row []Value, cond *PlanCond) (bool, error) {
	idx, err := ev.resolveRef(cond.Qualifier, cond.Column)
	if err != nil {
		return false, err
	}
	left := row[idx]

	switch cond.Op {
	case OpIsNull:
		return left.IsNull(), nil
	case OpIsNotNull:
		return !left.IsNull(), nil
	case OpIn, OpNotIn:
		return ev.evalIn(left, cond)
	case OpLike, OpNotLike:
		return evalLike(left, cond)
	case OpBetween, OpNotBetween:
		return evalBetween(left, cond)
	}

	right, err := ev.operandValue(row, &cond.Operand)
	if err != nil {
		return false, err
	}
	return evalCompareOp(left, right, cond.Op)
}

// evalIn tests membership of the left value in the operand list or subquery
// result. Elements compare with eq semantics, so a Null left value matches
// only a Null element. NOT IN of a Null left value is false, never true.
func (ev *rowEval) evalIn(left Value, cond *PlanCond) (bool, error) {
	elems, err := ev.operandList(&cond.Operand)
	if err != nil {
		return false, err
	}
	matched := false
	for _, elem := range elems {
		hit, err := evalCompareOp(left, elem, OpEq)
		if err != nil {
			return false, err
		}
		if hit {
			matched = true
			break
		}
	}
	if cond.Op == OpNotIn {
		if left.IsNull() {
			return false, nil
		}
		return !matched, nil
	}
	return matched, nil
}

// evalLike matches the left value against the pattern operand. A Null left
// value never matches, for LIKE and NOT LIKE alike.
func evalLike(left Value, cond *PlanCond) (bool, error) {
	if left.IsNull() {
		return false, nil
	}
	if left.Kind() != KindText {
		return false, typeMismatch("LIKE requires a text value in column %q, got %s", cond.Column, left.Kind())
	}
	matched := matchLikePattern(left.Text(), cond.Operand.Value.Text())
	if cond.Op == OpNotLike {
		return !matched, nil
	}
	return matched, nil
}

// evalBetween tests lower <= left <= upper with the usual coercion rules.
// A Null left value fails BETWEEN and NOT BETWEEN alike.
func evalBetween(left Value, cond *PlanCond) (bool, error) {
	if left.IsNull() {
		return false, nil
	}
	lower, upper := cond.Operand.List[0], cond.Operand.List[1]
	ge, err := evalCompareOp(left, lower, OpGe)
	if err != nil {
		return false, err
	}
	le, err := evalCompareOp(left, upper, OpLe)
	if err != nil {
		return false, err
	}
	matched := ge && le
	if cond.Op == OpNotBetween {
		return !matched, nil
	}
	return matched, nil
}

// operandValue resolves a single-valued operand: a literal, a column
// reference into the current row, or a scalar subquery.
func (ev *rowEval) operandValue(row []Value, op *Operand) (Value, error) {
	switch op.Kind {
	case OperandColumn:
		idx, err := ev.resolveRef(op.Qualifier, op.Name)
		if err != nil {
			return Value{}, err
		}
		return row[idx], nil
	case OperandSubquery:
		return ev.env.scalarSubquery(op.Subquery)
	default:
		return op.Value, nil
	}
}

// operandList resolves a list operand for IN: either literal values or the
// single column produced by a subquery.
func (ev *rowEval) operandList(op *Operand) ([]Value, error) {
	if op.Kind == OperandSubquery {
		return ev.env.listSubquery(op.Subquery)
	}
	return op.List, nil
}

// evalCompareOp applies a binary comparison with the Null rules: two Nulls
// are equal for eq and unequal for ne, and any other comparison touching a
// Null is false.
func evalCompareOp(left, right Value, op CompareOp) (bool, error) {
	if left.IsNull() || right.IsNull() {
		if op == OpEq {
			return left.IsNull() && right.IsNull(), nil
		}
		return false, nil
	}
	cmp, err := compareValues(left, right)
	if err != nil {
		return false, err
	}
	switch op {
	case OpEq:
		return cmp == 0, nil
	case OpNe:
		return cmp != 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpGt:
		return cmp > 0, nil
	case OpLe:
		return cmp <= 0, nil
	case OpGe:
		return cmp >= 0, nil
	}
	return false, fmt.Errorf("unsupported comparison operator %q", string(op))
}

// compareValues orders two non-Null values for comparison predicates.
// Int64 and Float64 compare numerically with the float tolerance, Text is
// lexicographic, and Bool orders false before true. Any other pairing is a
// TypeMismatch.
func compareValues(a, b Value) (int, error) {
	if af, aok := a.asFloat(); aok {
		if bf, bok := b.asFloat(); bok {
			if floatsEqual(af, bf) {
				return 0, nil
			}
			if af < bf {
				return -1, nil
			}
			return 1, nil
		}
	}
	if a.Kind() == b.Kind() {
		switch a.Kind() {
		case KindText:
			return strings.Compare(a.Text(), b.Text()), nil
		case KindBool:
			switch {
			case !a.Bool() && b.Bool():
				return -1, nil
			case a.Bool() && !b.Bool():
				return 1, nil
			}
			return 0, nil
		}
	}
	return 0, typeMismatch("cannot compare %s with %s", a.Kind(), b.Kind())
}

// matchLikePattern matches a string against a SQL LIKE pattern, where %
// matches any run of characters and _ matches exactly one. The pattern is
// anchored at both ends and matching is case-sensitive.
func matchLikePattern(s, pattern string) bool {
	str := []rune(s)
	pat := []rune(pattern)

	si, pi := 0, 0
	starIdx, starMatch := -1, 0
	for si < len(str) {
		switch {
		case pi < len(pat) && (pat[pi] == '_' || pat[pi] == str[si]):
			si++
			pi++
		case pi < len(pat) && pat[pi] == '%':
			// Remember the wildcard so we can retry with a longer run
			starIdx = pi
			starMatch = si
			pi++
		case starIdx >= 0:
			pi = starIdx + 1
			starMatch++
			si = starMatch
		default:
			return false
		}
	}
	for pi < len(pat) && pat[pi] == '%' {
		pi++
	}
	return pi == len(pat)
}

// evalExpr evaluates a projection expression for one row.
func (ev *rowEval) evalExpr(row []Value, e *PlanExpr) (Value, error) {
	switch e.Kind {
	case ExprLiteral:
		return e.Literal, nil
	case ExprColumn:
		idx, err := ev.resolveRef(e.Qualifier, e.Name)
		if err != nil {
			return Value{}, err
		}
		return row[idx], nil
	case ExprFunction:
		args := make([]Value, len(e.Args))
		for i, arg := range e.Args {
			v, err := ev.evalExpr(row, arg)
			if err != nil {
				return Value{}, fmt.Errorf("function %s: argument %d: %w", e.Name, i+1, err)
			}
			args[i] = v
		}
		return GetGlobalRegistry().Call(e.Name, args)
	case ExprCase:
		return ev.evalCase(row, e)
	}
	return Value{}, fmt.Errorf("unsupported expression kind %q", string(e.Kind))
}

// evalCase evaluates a CASE expression. The simple form compares the
// subject value against each WHEN value in order; the searched form
// evaluates each WHEN condition. No match and no ELSE yields Null.
func (ev *rowEval) evalCase(row []Value, e *PlanExpr) (Value, error) {
	if e.Subject != nil {
		subject, err := ev.evalExpr(row, e.Subject)
		if err != nil {
			return Value{}, err
		}
		for _, when := range e.Whens {
			match, err := ev.evalExpr(row, when.Match)
			if err != nil {
				return Value{}, err
			}
			if valuesEqual(subject, match) {
				return ev.evalExpr(row, when.Then)
			}
		}
	} else {
		for _, when := range e.Whens {
			hit, err := ev.evalCond(row, when.Cond)
			if err != nil {
				return Value{}, err
			}
			if hit {
				return ev.evalExpr(row, when.Then)
			}
		}
	}
	if e.Else != nil {
		return ev.evalExpr(row, e.Else)
	}
	return NullValue(), nil
}

// sortKey addresses one ORDER BY key after resolution against the working
// row layout.
type sortKey struct {
	index     int
	ascending bool
}

// sortRows stable-sorts rows in place by the given keys. Null is the
// smallest value, so it leads ascending keys and trails descending ones.
func sortRows(rows [][]Value, keys []sortKey) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range keys {
			cmp := orderValues(rows[i][key.index], rows[j][key.index])
			if cmp == 0 {
				continue
			}
			if key.ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
}

// applyLimit slices rows to [offset, offset+count). An offset past the end
// yields no rows.
func applyLimit(rows [][]Value, limit *PlanLimit) [][]Value {
	if limit == nil {
		return rows
	}
	if limit.Offset >= len(rows) {
		return rows[:0]
	}
	end := limit.Offset + limit.Count
	if end > len(rows) {
		end = len(rows)
	}
	return rows[limit.Offset:end]
}

// distinctRows keeps the first row for each distinct key over the given
// columns, preserving order. Full rows are returned so hidden sort columns
// survive deduplication.
func distinctRows(rows [][]Value, keyCols []int) [][]Value {
	seen := make(map[string]struct{}, len(rows))
	out := make([][]Value, 0, len(rows))
	for _, row := range rows {
		key := rowKey(row, keyCols)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}

// rowKey builds the canonical hash key for the chosen columns of a row.
func rowKey(row []Value, cols []int) string {
	var sb strings.Builder
	for i, c := range cols {
		if i > 0 {
			sb.WriteByte(0)
		}
		row[c].writeKey(&sb)
	}
	return sb.String()
}
